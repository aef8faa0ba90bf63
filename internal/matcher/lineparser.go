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

// Package matcher implements the log-line parser and match engine that turn
// the game server's structured stdout into the chat/connect/plugin-defined
// events brickwarden forwards to plugins.
package matcher

import (
	"regexp"
	"strconv"
)

// lineRe recognizes a game-server log line of the form
// "[<timestamp>][<emitter index>]<body>". The timestamp charset is
// restricted to digits, dots, colons, and hyphens, matching the game
// server's own log format; everything after the closing bracket is the
// body handed to the match engine.
var lineRe = regexp.MustCompile(`^\[[0-9.\-:]+\]\[\s*(\d+)\](.+)$`)

// A Record is one parsed game-server log line.
type Record struct {
	Index int32
	Body  string
}

// ParseLine attempts to parse a raw game-server stdout line. It returns
// ok=false for lines that don't match the expected format, which callers
// should silently discard (or, in verbose mode, echo at debug level).
func ParseLine(line string) (Record, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	idx, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return Record{}, false
	}

	return Record{Index: int32(idx), Body: m[2]}, true
}
