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

// Package logging sets up brickwarden's [log/slog] default logger.
//
// At startup, a bootstrap logger buffers log records in memory (see
// [InitBootstrap]); it is only ever flushed to disk by the panic handler.
// [Init] then installs the configured logger for the rest of the process's
// life; the entry point calls it before the CLI flags are parsed.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/iostreams"
)

// Default values for the logger.
const (
	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o755
)

// BootstrapWriter is the writer used by the bootstrap logger. It is global so
// the panic handler can check whether it is a [BufferedFileWriter] and flush
// it to disk.
var BootstrapWriter io.Writer //nolint:gochecknoglobals // needed by the panic handler

var errInvalidFormat = errors.New("unsupported log format")

// Config holds the user-resolved logging configuration, parsed after flags
// are available.
type Config struct {
	// Format is either "text" or "json".
	Format string

	// Output is "stdout", "stderr", or a file path.
	Output string

	// Level is the minimum level that is logged.
	Level Level

	// Enabled turns logging off entirely when false.
	Enabled bool
}

// InitBootstrap installs a bootstrap logger as the default [slog] logger.
// With BRICKWARDEN_DEBUG set to "true" or "1" it logs directly to stderr;
// set to "false" or "0" it discards every record; otherwise (including when
// unset) it buffers records in memory.
func InitBootstrap() error {
	debugVar := strings.ToLower(os.Getenv("BRICKWARDEN_DEBUG"))

	if debugVar == "false" || debugVar == "0" {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return nil
	}

	if debugVar != "true" && debugVar != "1" {
		path, err := fspath.New("~", ".cache", "brickwarden", "bootstrap.log").Abs()
		if err != nil {
			return fmt.Errorf("failed to build bootstrap log path: %w", err)
		}

		w := NewBufferedFileWriter(path)
		BootstrapWriter = w

		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     LevelTrace.Level(),
		})))

		return nil
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(iostreams.NewLockedWriter(os.Stderr), &slog.HandlerOptions{
		AddSource: true,
		Level:     LevelTrace.Level(),
	})))

	return nil
}

// Init installs the fully configured logger described by cfg and streams as
// the default [slog] logger.
func Init(cfg Config, streams *iostreams.Streams) error {
	if !cfg.Enabled {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return nil
	}

	w, err := resolveOutput(cfg.Output, streams)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		AddSource:   false,
		Level:       cfg.Level.Level(),
		ReplaceAttr: replaceAttrFunc,
	}

	var h slog.Handler

	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "":
		if streams != nil && streams.Colored {
			h = newColorTextHandler(w, opts)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
	default:
		return fmt.Errorf("%w: %s", errInvalidFormat, cfg.Format)
	}

	slog.SetDefault(slog.New(h))

	return nil
}

func resolveOutput(output string, streams *iostreams.Streams) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stderr", "":
		if streams != nil {
			return iostreams.NewLockedWriter(streams.Stderr), nil
		}

		return iostreams.NewLockedWriter(os.Stderr), nil
	case "stdout":
		if streams != nil {
			return iostreams.NewLockedWriter(streams.Stdout), nil
		}

		return iostreams.NewLockedWriter(os.Stdout), nil
	default:
		path := fspath.Path(output)

		if err := path.Dir().MkdirAll(defaultDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create directory %q for log output: %w", path.Dir(), err)
		}

		f, err := path.OpenFile(os.O_WRONLY|os.O_APPEND|os.O_CREATE, defaultFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file at %s: %w", path, err)
		}

		return iostreams.NewLockedWriter(f), nil
	}
}

func replaceAttrFunc(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}

		return slog.String(slog.LevelKey, Level(level).String())
	}

	return a
}
