// Copyright 2025 The brickwarden Authors
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

package logging

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/brickwarden/brickwarden/internal/fspath"
)

// Permissions the bootstrap log file and its parent directory are created
// with; 0o600 keeps the file readable only by the user running brickwarden,
// since it may contain plugin manifests or paths from the operator's
// environment.
const (
	bootstrapFilePerm os.FileMode = 0o600
	bootstrapDirPerm  os.FileMode = 0o750
)

// A BufferedFileWriter accumulates bootstrap-logger output in memory
// instead of writing it anywhere, so that a normal run never touches disk
// for logs nobody will read. [panichandler.Handle] is the only thing that
// ever calls [BufferedFileWriter.Flush]: if the process dies before flags
// are parsed, the buffered bootstrap trail is written out next to the crash
// report so the operator has more than just the panic's own stack trace to
// go on.
type BufferedFileWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	path fspath.Path
}

// NewBufferedFileWriter returns a writer that buffers in memory until
// Flush is called, writing to path at that point. path must be absolute.
func NewBufferedFileWriter(path fspath.Path) *BufferedFileWriter {
	if !path.IsAbs() {
		panic("logging: bootstrap writer path must be absolute, got " + path.String())
	}

	return &BufferedFileWriter{path: path} //nolint:exhaustruct // buf and mu are zero-value ready
}

// Write appends p to the in-memory buffer. It never fails.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.Write(p) //nolint:wrapcheck // bytes.Buffer.Write never returns a non-nil error
}

// Path returns the file Flush writes to.
func (w *BufferedFileWriter) Path() fspath.Path {
	return w.path
}

// Flush appends extra to the buffered contents and writes the whole thing
// to Path, creating the file and its parent directory if needed, then
// clears the buffer. Called at most once, from the panic handler.
func (w *BufferedFileWriter) Flush(extra []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.path.Dir().MkdirAll(bootstrapDirPerm); err != nil {
		return fmt.Errorf("failed to create bootstrap log directory: %w", err)
	}

	f, err := w.path.OpenFile(os.O_CREATE|os.O_WRONLY|os.O_APPEND, bootstrapFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open bootstrap log file: %w", err)
	}
	defer f.Close() //nolint:errcheck // best effort on a file we're about to stop using

	if _, err := f.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write buffered bootstrap log: %w", err)
	}

	if len(extra) > 0 {
		if _, err := f.Write(extra); err != nil {
			return fmt.Errorf("failed to write crash report to bootstrap log: %w", err)
		}
	}

	w.buf.Reset()

	return nil
}
