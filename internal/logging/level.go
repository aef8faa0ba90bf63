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

package logging

import (
	"log/slog"
	"strings"
)

// Level extends [slog.Level] with a Trace level below Debug, matching
// the level vocabulary spec.md §7 names (`debug`/`info`/`warn`/`error`) plus
// the teacher's trace level used for the very chatty discovery/dispatch
// paths.
type Level slog.Level

// The supported levels, spaced the same way [slog.Level] spaces its own
// constants so Trace sorts below Debug.
const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// Level returns l as an [slog.Level].
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// String returns the human-readable name of l.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return slog.Level(l).String()
	}
}

// ParseLevel parses the textual representation of a level. It accepts the
// same spellings as [Level.String], case-insensitively.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return 0, false
	}
}
