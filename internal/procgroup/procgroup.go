// Copyright 2025 Antti Kivi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package procgroup gives brickwarden's two kinds of supervised child
// (plugins and the game server) one shared, deterministic shutdown
// sequence: every child is started as the leader of its own process group,
// so a single signal reaches it and anything it spawned, and shutdown
// escalates from SIGTERM to SIGKILL if the group doesn't exit in time.
package procgroup

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Configure marks cmd to start as the leader of a new process group. It
// must be called before cmd.Start.
func Configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true} //nolint:exhaustruct // other fields unused on this platform
}

// Stop signals cmd's process group with SIGTERM, then escalates to SIGKILL
// if exited is not closed within timeout. exited must be closed by the
// caller once cmd.Wait (or equivalent) returns, typically by a goroutine
// that also consumes the process's exit status. Stop returns once the
// group has been signaled and either exited or been force-killed; it does
// not itself wait for the process to be reaped.
func Stop(ctx context.Context, cmd *exec.Cmd, timeout time.Duration, exited <-chan struct{}) error {
	if cmd.Process == nil {
		return nil
	}

	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err != nil {
		// The process already exited and was reaped; nothing left to signal.
		return nil //nolint:nilerr // race between exit and signal is expected, not an error
	}

	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process group %d: %w", pgid, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-exited:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to send SIGKILL to process group %d: %w", pgid, err)
	}

	return nil
}
