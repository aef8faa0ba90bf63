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

// Package manifest discovers brickwarden's plugins by reading the
// `plugin.toml` manifest under each direct subdirectory of the plugin root.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/panichandler"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
)

// defaultTarget is the executable name assumed when a manifest omits target.
const defaultTarget = "plugin"

// errInvalidManifest is wrapped by manifest validation failures.
var errInvalidManifest = errors.New("invalid plugin manifest")

// A Manifest describes one discovered plugin.
type Manifest struct {
	Name        string `toml:"name"`
	Author      string `toml:"author"`
	Description string `toml:"description"`
	Target      string `toml:"target"`
}

// file is the on-disk shape of plugin.toml: a single required [plugin]
// table.
type file struct {
	Plugin Manifest `toml:"plugin"`
}

// An Entry pairs a loaded Manifest with the directory it was found in and
// the resolved absolute path to its executable.
type Entry struct {
	Manifest   Manifest
	Dir        fspath.Path
	Executable fspath.Path
}

// Scan reads root's direct subdirectories and loads the plugin.toml manifest
// from each one that has it. Entries lacking a manifest are silently
// skipped; manifests that fail to parse or validate are logged as a warning
// and skipped. The returned order reflects filesystem order, which is not a
// contract other code should rely on.
func Scan(ctx context.Context, root fspath.Path) ([]Entry, error) {
	abs, err := root.Abs()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin root %q: %w", root, err)
	}

	dir, err := abs.Clean().ReadDir()
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug(ctx, "plugin root does not exist, no plugins loaded", "root", abs)

			return nil, nil
		}

		return nil, fmt.Errorf("failed to read plugin root %q: %w", abs, err)
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)

	eg, gctx := errgroup.WithContext(ctx)

	for _, dirEntry := range dir {
		if !dirEntry.IsDir() {
			continue
		}

		name := dirEntry.Name()

		eg.Go(func() error {
			defer panichandler.WithStackTrace()()

			entry, ok, err := load(gctx, abs, name)
			if err != nil {
				logging.Warn(gctx, "skipping plugin with invalid manifest", "name", name, "err", err)

				return nil
			}

			if !ok {
				logging.Trace(gctx, "no manifest found for entry", "name", name)

				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			entries = append(entries, entry)

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	logging.Debug(ctx, "plugin discovery complete", "count", len(entries))

	return entries, nil
}

// load reads and validates the manifest for the subdirectory name of root.
// It returns ok=false, with no error, when the subdirectory simply has no
// plugin.toml.
func load(_ context.Context, root fspath.Path, name string) (Entry, bool, error) {
	dir := root.Join(name)

	manifestPath := dir.Join("plugin.toml")

	isFile, err := manifestPath.IsFile()
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w", err)
	}

	if !isFile {
		return Entry{}, false, nil
	}

	data, err := manifestPath.ReadFile()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read %q: %w", manifestPath, err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return Entry{}, false, fmt.Errorf("failed to parse %q: %w", manifestPath, err)
	}

	m := f.Plugin
	if m.Target == "" {
		m.Target = defaultTarget
	}

	if err := validate(m, manifestPath); err != nil {
		return Entry{}, false, err
	}

	execPath, err := fspath.NewAbs(string(dir), m.Target)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w", err)
	}

	if ok, err := execPath.IsFile(); err != nil {
		return Entry{}, false, fmt.Errorf("%w", err)
	} else if !ok {
		return Entry{}, false, fmt.Errorf("%w: executable %q not found", errInvalidManifest, execPath)
	}

	return Entry{Manifest: m, Dir: dir, Executable: execPath}, true, nil
}

func validate(m Manifest, path fspath.Path) error {
	if m.Name == "" {
		return fmt.Errorf("%w: %q did not specify a name", errInvalidManifest, path)
	}

	if m.Author == "" {
		return fmt.Errorf("%w: %q did not specify an author", errInvalidManifest, path)
	}

	if m.Description == "" {
		return fmt.Errorf("%w: %q did not specify a description", errInvalidManifest, path)
	}

	return nil
}
