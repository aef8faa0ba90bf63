package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/manifest"
)

func writePlugin(t *testing.T, root, name, toml string, withExecutable bool) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	if toml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.toml"), []byte(toml), 0o644))
	}

	if withExecutable {
		target := "plugin"
		require.NoError(t, os.WriteFile(filepath.Join(dir, target), []byte("#!/bin/sh\n"), 0o755))
	}
}

func TestScanLoadsValidManifest(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("plugin executables are POSIX-only in this test")
	}

	root := t.TempDir()
	writePlugin(t, root, "ping-pong", `[plugin]
name = "ping-pong"
author = "brickwarden"
description = "replies to pings"
`, true)

	entries, err := manifest.Scan(context.Background(), fspath.Path(root))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "ping-pong", e.Manifest.Name)
	assert.Equal(t, "brickwarden", e.Manifest.Author)
	assert.Equal(t, "plugin", e.Manifest.Target)
	assert.Equal(t, filepath.Join(root, "ping-pong", "plugin"), e.Executable.String())
}

func TestScanSkipsEntriesWithoutManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-manifest"), 0o755))

	entries, err := manifest.Scan(context.Background(), fspath.Path(root))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanSkipsInvalidManifests(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("plugin executables are POSIX-only in this test")
	}

	root := t.TempDir()

	// Missing required "author" field.
	writePlugin(t, root, "incomplete", `[plugin]
name = "incomplete"
description = "missing author"
`, true)

	// Manifest references an executable that was never written.
	writePlugin(t, root, "missing-exe", `[plugin]
name = "missing-exe"
author = "brickwarden"
description = "no binary on disk"
`, false)

	// Unparseable TOML.
	writePlugin(t, root, "bad-toml", "not valid toml [[[", true)

	entries, err := manifest.Scan(context.Background(), fspath.Path(root))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanMissingRootReturnsNoEntries(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "does-not-exist")

	entries, err := manifest.Scan(context.Background(), fspath.Path(root))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanDefaultsTarget(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("plugin executables are POSIX-only in this test")
	}

	root := t.TempDir()
	writePlugin(t, root, "defaulted", `[plugin]
name = "defaulted"
author = "brickwarden"
description = "uses the default target"
`, true)

	entries, err := manifest.Scan(context.Background(), fspath.Path(root))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plugin", entries[0].Manifest.Target)
}
