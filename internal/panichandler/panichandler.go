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

// Package panichandler defines the panic handler functions for brickwarden.
// Every goroutine the supervisor starts — the coordinator, each plugin's
// stdin pump and stdout router, the game-server's stdin pump — defers one of
// these at the top, so that a bug in one plugin's line handling cannot take
// down the whole process silently.
package panichandler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/brickwarden/brickwarden/internal/logging"
)

const (
	header = "!!! BRICKWARDEN CRASHED !!!"
	footer = "Please file a bug report including the version and stack trace above."
)

// panicMu serializes panic recovery so that concurrent panics don't
// interleave their output.
var panicMu sync.Mutex //nolint:gochecknoglobals // used by multiple goroutines

// cancel cancels the program's root context. It must be set via [SetCancel]
// before any goroutine that defers a panic handler is started.
var cancel context.CancelFunc //nolint:gochecknoglobals // set once at startup

var cancelOnce sync.Once //nolint:gochecknoglobals // set once at startup

// SetCancel records the cancel function for the program's root context.
func SetCancel(c context.CancelFunc) {
	cancelOnce.Do(func() {
		cancel = c
	})
}

// Handle recovers a panic in the current goroutine, logs it, cancels the
// program context, and exits. It must be deferred directly (not inside
// another deferred function) so that recover observes the panic.
func Handle() {
	panicMu.Lock()
	defer panicMu.Unlock()

	//revive:disable-next-line:defer this is itself a deferred function
	r := recover()

	handlePanic(r, nil)
}

// WithStackTrace returns a handler like [Handle] that also captures the
// stack leading up to where it was created, for goroutines spawned deep
// inside a call chain where the default stack trace would be too narrow.
func WithStackTrace() func() {
	trace := debug.Stack()

	return func() {
		panicMu.Lock()
		defer panicMu.Unlock()

		//revive:disable-next-line:defer this is itself a deferred function
		r := recover()

		handlePanic(r, trace)
	}
}

func handlePanic(r any, spawnTrace []byte) {
	if r == nil {
		return
	}

	if cancel != nil {
		cancel()
	}

	var buf bytes.Buffer

	buf.WriteString("\n" + header + "\n\n")
	fmt.Fprintf(&buf, "panic: %v\n\n", r)
	buf.WriteString("stack trace:\n")
	buf.Write(debug.Stack())

	if spawnTrace != nil {
		buf.WriteString("\nspawned from:\n")
		buf.Write(spawnTrace)
	}

	buf.WriteString("\n" + footer + "\n")

	os.Stderr.Write(buf.Bytes()) //nolint:errcheck // best effort, we're already crashing

	flushBootstrapLog(buf.Bytes())

	//revive:disable-next-line:deep-exit panic handler must terminate the process
	os.Exit(1)
}

// flushBootstrapLog writes the crash report out next to whatever the
// bootstrap logger had buffered in memory, whenever the bootstrap writer is
// a [logging.BufferedFileWriter], whether or not a configured logger has
// since replaced the bootstrap one. The buffered trail is
// otherwise never written to disk (see [logging.BufferedFileWriter]); a
// crash is the one time it's worth the write.
func flushBootstrapLog(report []byte) {
	w, ok := logging.BootstrapWriter.(*logging.BufferedFileWriter)
	if !ok {
		return
	}

	if err := w.Flush(report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush bootstrap log to %s: %v\n", w.Path(), err) //nolint:errcheck,lll
	}
}
