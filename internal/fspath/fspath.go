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

// Package fspath implements small utility routines for manipulating the
// handful of filesystem paths brickwarden cares about: the plugin directory
// tree, the game-server data directory, and log output destinations.
package fspath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// A Path is a file system path.
type Path string

// New joins elem into a single path using [filepath.Join].
func New(elem ...string) Path {
	return Path(filepath.Join(elem...))
}

// NewAbs joins elem and converts the result to an absolute path.
func NewAbs(elem ...string) (Path, error) {
	p, err := New(elem...).Abs()
	if err != nil {
		return "", fmt.Errorf("failed to create path: %w", err)
	}

	return p, nil
}

// Abs returns an absolute representation of p, expanding environment
// variables first. Relative paths are joined with the current working
// directory.
func (p Path) Abs() (Path, error) {
	expanded := os.ExpandEnv(string(p))

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return Path(abs), nil
}

// Base returns the last element of p.
func (p Path) Base() Path {
	return Path(filepath.Base(string(p)))
}

// Clean returns the shortest path name equivalent to p.
func (p Path) Clean() Path {
	return Path(filepath.Clean(string(p)))
}

// Dir returns all but the last element of p.
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// Join joins p with elem, separated by the OS path separator.
func (p Path) Join(elem ...string) Path {
	all := make([]string, len(elem)+1)
	all[0] = string(p)
	copy(all[1:], elem)

	return Path(filepath.Join(all...))
}

// IsAbs reports whether p is an absolute path.
func (p Path) IsAbs() bool {
	return filepath.IsAbs(string(p))
}

// Exists reports whether anything exists at p.
func (p Path) Exists() (bool, error) {
	_, err := os.Stat(string(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w", err)
	}

	return true, nil
}

// IsFile reports whether p exists and is a regular file.
func (p Path) IsFile() (bool, error) {
	info, err := os.Stat(string(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w", err)
	}

	return !info.IsDir(), nil
}

// IsDir reports whether p exists and is a directory.
func (p Path) IsDir() (bool, error) {
	info, err := os.Stat(string(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w", err)
	}

	return info.IsDir(), nil
}

// MkdirAll creates a directory at p along with any necessary parents.
func (p Path) MkdirAll(perm os.FileMode) error {
	if err := os.MkdirAll(string(p), perm); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", p, err)
	}

	return nil
}

// OpenFile opens the file at p with the given flag and permissions.
func (p Path) OpenFile(flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(string(p), flag, perm) // #nosec G304 -- internal utility
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", p, err)
	}

	return f, nil
}

// ReadDir reads the directory named by p, returning its entries sorted by
// filename.
func (p Path) ReadDir() ([]os.DirEntry, error) {
	list, err := os.ReadDir(string(p))
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return list, nil
}

// ReadFile reads the whole file at p.
func (p Path) ReadFile() ([]byte, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return data, nil
}

// String implements [fmt.Stringer] for Path.
func (p Path) String() string {
	return string(p)
}
