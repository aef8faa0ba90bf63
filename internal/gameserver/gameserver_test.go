package gameserver

import (
	"testing"

	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/stretchr/testify/assert"
)

func TestOptionsArgsOmitsEmptyCredentials(t *testing.T) {
	t.Parallel()

	opts := Options{DataDir: fspath.New("/srv/data")} //nolint:exhaustruct // credentials intentionally unset

	assert.Equal(t, []string{"-NotInstalled", "-log", "-UserDir=/srv/data"}, opts.args())
}

func TestOptionsArgsIncludesCredentialsWhenSet(t *testing.T) {
	t.Parallel()

	opts := Options{
		DataDir:  fspath.New("/srv/data"),
		User:     "alice",
		Password: "hunter2",
	}

	assert.Equal(
		t,
		[]string{"-NotInstalled", "-log", "-UserDir=/srv/data", "-User=alice", "-Password=hunter2"},
		opts.args(),
	)
}
