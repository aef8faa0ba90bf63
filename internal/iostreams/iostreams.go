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

// Package iostreams defines the standard output and error streams used by
// brickwarden's logger, and the color-capability detection that decides
// whether log lines get ANSI level coloring.
package iostreams

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ColorMode controls whether ANSI colors are used for log output.
type ColorMode int

// The supported color modes.
const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Streams holds the writers brickwarden logs to. They are the raw files;
// the logging package wraps whichever one it writes to in [NewLockedWriter]
// so that the stdin/stdout pumps of many plugins and the coordinator
// goroutine can log concurrently without interleaving partial writes.
type Streams struct {
	Stdout  *os.File
	Stderr  *os.File
	Colored bool
}

// New resolves colors against mode and returns a Streams writing to the
// process's real stdout/stderr.
func New(mode ColorMode) *Streams {
	var colored bool

	switch mode {
	case ColorAlways:
		colored = true
	case ColorNever:
		colored = false
	case ColorAuto:
		colored = term.IsTerminal(int(os.Stderr.Fd()))
	default:
		panic(fmt.Sprintf("invalid color mode: %v", mode))
	}

	return &Streams{Stdout: os.Stdout, Stderr: os.Stderr, Colored: colored}
}
