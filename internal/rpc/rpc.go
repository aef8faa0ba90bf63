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

// Package rpc implements the newline-delimited JSON-RPC 2.0 wire protocol
// brickwarden speaks with its plugins: one JSON object per line, in either
// direction. It is the Go rendition of the original Rust `plugin::rpc`
// module and mirrors the message shape of the teacher's `pkg/rpp` package,
// adapted from that package's Content-Length framing (a later protocol
// generation not used here) to the one-line-per-message framing spec.md §4.1
// specifies.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// JSONRPCVersion is the protocol version value brickwarden writes on every
// message it encodes. [Decode] does not check the field on incoming lines.
const JSONRPCVersion = "2.0"

// Errors returned while decoding a Message.
var (
	// ErrWrongShape is returned when a decoded JSON object matches none of
	// Notification, Request, or Response.
	ErrWrongShape = errors.New("wrong rpc message shape")

	// ErrNoPayload is returned by DecodeParams when the message carries no
	// params to decode.
	ErrNoPayload = errors.New("no payload available")
)

// A Message is one of [Notification], [Request], or [Response]. The three
// shapes are discriminated structurally, not by a type tag, per spec.md
// §4.1.
type Message interface {
	// method returns the RPC method name and true for Notification/Request,
	// or "", false for Response.
	method() (string, bool)
	isMessage()
}

// A Notification is a Message with a method and no id; it requires no
// response.
type Notification struct {
	Method string
	Params json.RawMessage
}

func (Notification) isMessage() {}

func (n Notification) method() (string, bool) { return n.Method, true }

// NewNotification builds a Notification whose params are the JSON encoding
// of payload. Passing a nil payload produces a Notification with no params.
func NewNotification(method string, payload any) (Notification, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return Notification{}, err
	}

	return Notification{Method: method, Params: raw}, nil
}

// A Request is a Message with a method and an id; it requires a Response.
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

func (Request) isMessage() {}

func (r Request) method() (string, bool) { return r.Method, true }

// A Response is a Message with an id and exactly one of Result or Error set.
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  *Error
}

func (Response) isMessage() {}

func (Response) method() (string, bool) { return "", false }

// An Error is a JSON-RPC error object.
type Error struct {
	Code    int   `json:"code"`
	Message string `json:"message"`
	Data    any   `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Data)
	}

	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// wireMessage is the on-the-wire representation all three Message shapes
// marshal to and unmarshal from; absent fields are omitted on encode.
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Method returns the method name of m and whether m carries one at all
// (true for Notification/Request, false for Response).
func Method(m Message) (string, bool) {
	return m.method()
}

// LogValue renders m as a single grouped [slog.Value] for use as one
// attribute in structured logs.
func LogValue(m Message) slog.Value {
	w := toWire(m)

	attrs := []slog.Attr{slog.String("jsonrpc", w.JSONRPC)}

	if w.ID != nil {
		attrs = append(attrs, slog.Any("id", w.ID.Any()))
	}

	if w.Method != "" {
		attrs = append(attrs, slog.String("method", w.Method))
	}

	if w.Params != nil {
		attrs = append(attrs, slog.String("params", string(w.Params)))
	}

	if w.Result != nil {
		attrs = append(attrs, slog.String("result", string(w.Result)))
	}

	if w.Error != nil {
		attrs = append(attrs, slog.String("error", w.Error.Error()))
	}

	return slog.GroupValue(attrs...)
}

func toWire(m Message) wireMessage {
	w := wireMessage{JSONRPC: JSONRPCVersion} //nolint:exhaustruct // fields filled in per shape

	switch v := m.(type) {
	case Notification:
		w.Method = v.Method
		w.Params = v.Params
	case Request:
		id := v.ID
		w.ID = &id
		w.Method = v.Method
		w.Params = v.Params
	case Response:
		id := v.ID
		w.ID = &id
		w.Result = v.Result
		w.Error = v.Error
	}

	return w
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc payload: %w", err)
	}

	return raw, nil
}

// DecodeParams decodes a Notification's or Request's params into a value of
// type T. It returns ErrNoPayload if the message carries no params.
func DecodeParams[T any](m Message) (T, error) {
	var (
		zero T
		raw  json.RawMessage
	)

	switch v := m.(type) {
	case Notification:
		raw = v.Params
	case Request:
		raw = v.Params
	default:
		return zero, fmt.Errorf("%w: message has no params", ErrNoPayload)
	}

	if raw == nil {
		return zero, fmt.Errorf("%w", ErrNoPayload)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("failed to decode rpc params: %w", err)
	}

	return out, nil
}
