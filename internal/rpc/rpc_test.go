package rpc_test

import (
	"testing"

	"github.com/brickwarden/brickwarden/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNotificationRoundTrip(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("chat", rpc.ChatParams{User: "alice", Message: "hello world"})
	require.NoError(t, err)

	line, err := rpc.Encode(n)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1])

	decoded, err := rpc.Decode(line[:len(line)-1])
	require.NoError(t, err)

	got, ok := decoded.(rpc.Notification)
	require.True(t, ok)
	assert.Equal(t, "chat", got.Method)

	params, err := rpc.DecodeParams[rpc.ChatParams](got)
	require.NoError(t, err)
	assert.Equal(t, "alice", params.User)
	assert.Equal(t, "hello world", params.Message)
}

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	t.Parallel()

	req := rpc.Request{
		ID:     rpc.NewIntID(7),
		Method: "register_matcher",
	}

	line, err := rpc.Encode(req)
	require.NoError(t, err)

	decoded, err := rpc.Decode(line)
	require.NoError(t, err)

	got, ok := decoded.(rpc.Request)
	require.True(t, ok)
	assert.Equal(t, "register_matcher", got.Method)
	assert.Equal(t, "7", got.ID.String())
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	t.Parallel()

	resp := rpc.Response{
		ID:     rpc.NewStringID("abc"),
		Result: []byte(`"ok"`),
	}

	line, err := rpc.Encode(resp)
	require.NoError(t, err)

	decoded, err := rpc.Decode(line)
	require.NoError(t, err)

	got, ok := decoded.(rpc.Response)
	require.True(t, ok)
	assert.Equal(t, "abc", got.ID.String())
	assert.Nil(t, got.Error)
}

// TestDecodeDiscriminationTotality checks that every JSON object composed of
// keys drawn from {id, method, params, result, error} decodes to exactly one
// of the three Message shapes, or fails with ErrWrongShape.
func TestDecodeDiscriminationTotality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantErr error
		check   func(*testing.T, rpc.Message)
	}{
		{
			name: "method and id is a request",
			line: `{"jsonrpc":"2.0","id":1,"method":"ping"}`,
			check: func(t *testing.T, m rpc.Message) { //nolint:thelper
				_, ok := m.(rpc.Request)
				assert.True(t, ok)
			},
		},
		{
			name: "method without id is a notification",
			line: `{"jsonrpc":"2.0","method":"broadcast","params":"hi"}`,
			check: func(t *testing.T, m rpc.Message) { //nolint:thelper
				_, ok := m.(rpc.Notification)
				assert.True(t, ok)
			},
		},
		{
			name: "id without method is a response",
			line: `{"jsonrpc":"2.0","id":1,"result":null}`,
			check: func(t *testing.T, m rpc.Message) { //nolint:thelper
				_, ok := m.(rpc.Response)
				assert.True(t, ok)
			},
		},
		{
			name:    "neither method nor id is wrong shape",
			line:    `{"jsonrpc":"2.0","params":{}}`,
			wantErr: rpc.ErrWrongShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := rpc.Decode([]byte(tt.line))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestDecodeBlankLineYieldsNoMessage(t *testing.T) {
	t.Parallel()

	m, err := rpc.Decode([]byte("   "))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDecodeMalformedJSONIsReported(t *testing.T) {
	t.Parallel()

	_, err := rpc.Decode([]byte(`{"jsonrpc":`))
	require.Error(t, err)
}

func TestDecodeParamsNoPayload(t *testing.T) {
	t.Parallel()

	n := rpc.Notification{Method: "ping"}

	_, err := rpc.DecodeParams[rpc.ChatParams](n)
	require.ErrorIs(t, err, rpc.ErrNoPayload)
}

func TestBroadcastAndWritelnParamsAreBareStrings(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("broadcast", rpc.BroadcastParams("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `"hi"`, string(n.Params))

	s, err := rpc.DecodeParams[string](n)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}
