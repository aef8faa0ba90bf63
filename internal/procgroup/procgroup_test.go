package procgroup_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwarden/brickwarden/internal/procgroup"
)

func TestStopSignalsRunningGroup(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("sleep", "30")
	procgroup.Configure(cmd)
	require.NoError(t, cmd.Start())

	exited := make(chan struct{})

	go func() {
		_ = cmd.Wait() //nolint:errcheck // exit status irrelevant to the test

		close(exited)
	}()

	err := procgroup.Stop(context.Background(), cmd, time.Second, exited)
	require.NoError(t, err)

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Stop")
	}
}

func TestStopOnAlreadyExitedProcessIsNotAnError(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	procgroup.Configure(cmd)
	require.NoError(t, cmd.Start())

	exited := make(chan struct{})
	close(exited)

	require.NoError(t, cmd.Wait())

	err := procgroup.Stop(context.Background(), cmd, time.Second, exited)
	assert.NoError(t, err)
}

func TestStopOnNilProcessIsNoOp(t *testing.T) {
	t.Parallel()

	cmd := &exec.Cmd{} //nolint:exhaustruct // Process is intentionally left nil

	err := procgroup.Stop(context.Background(), cmd, time.Second, make(chan struct{}))
	assert.NoError(t, err)
}
