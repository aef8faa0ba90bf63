package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// An ID is a JSON-RPC request/response identifier, which the spec allows to
// be either a string or a number. Go has no built-in sum type for this, so ID
// stores both representations and a discriminant, the same untagged-union
// trick the original Rust `Id` enum gets for free from serde.
type ID struct {
	str   string
	num   int64
	isStr bool
}

// NewStringID returns an ID holding the string s.
func NewStringID(s string) ID {
	return ID{str: s, isStr: true}
}

// NewIntID returns an ID holding the integer n.
func NewIntID(n int64) ID {
	return ID{num: n}
}

// Any returns the ID's value as a string or an int64.
func (id ID) Any() any {
	if id.isStr {
		return id.str
	}

	return id.num
}

// String renders the ID for logging and error messages; it does not round
// trip through [NewStringID].
func (id ID) String() string {
	if id.isStr {
		return id.str
	}

	return strconv.FormatInt(id.num, 10)
}

// MarshalJSON implements [json.Marshaler].
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isStr {
		raw, err := json.Marshal(id.str)
		if err != nil {
			return nil, fmt.Errorf("failed to encode string rpc id: %w", err)
		}

		return raw, nil
	}

	raw, err := json.Marshal(id.num)
	if err != nil {
		return nil, fmt.Errorf("failed to encode numeric rpc id: %w", err)
	}

	return raw, nil
}

// UnmarshalJSON implements [json.Unmarshaler]. It accepts both JSON strings
// and JSON numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.str = s
		id.isStr = true

		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rpc id is neither a string nor a number: %w", err)
	}

	id.num = n
	id.isStr = false

	return nil
}

// Encode renders m as a single line of JSON with a trailing newline, ready
// to be written directly to a plugin's stdin or the supervisor's stdout.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(toWire(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc message: %w", err)
	}

	raw = append(raw, '\n')

	return raw, nil
}

// Decode discriminates and decodes a single line of JSON into a Message.
// Decode does not itself split input into lines; callers read one line at a
// time (e.g. with bufio.Scanner) and pass each line's bytes, sans the
// trailing newline, to Decode. A blank or whitespace-only line decodes to a
// nil Message and a nil error, so callers can skip it without special-casing
// blank input themselves.
func Decode(line []byte) (Message, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil //nolint:nilnil // blank line carries no message, and isn't an error either
	}

	var w wireMessage
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("failed to decode rpc message: %w", err)
	}

	switch {
	case w.Method != "" && w.ID != nil:
		return Request{ID: *w.ID, Method: w.Method, Params: w.Params}, nil
	case w.Method != "" && w.ID == nil:
		return Notification{Method: w.Method, Params: w.Params}, nil
	case w.Method == "" && w.ID != nil:
		return Response{ID: *w.ID, Result: w.Result, Error: w.Error}, nil
	default:
		return nil, fmt.Errorf("%w: message has neither a method nor an id", ErrWrongShape)
	}
}
