package pluginhost

import (
	"context"
	"testing"

	"github.com/brickwarden/brickwarden/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchLog(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("log", rpc.LogParams{Severity: rpc.LogSeverityWarn, Content: "x"})
	require.NoError(t, err)

	var got rpc.LogParams

	dispatch(context.Background(), "myplugin", n, Handlers{
		OnLog: func(_ context.Context, plugin string, params rpc.LogParams) {
			assert.Equal(t, "myplugin", plugin)
			got = params
		},
	})

	assert.Equal(t, rpc.LogSeverityWarn, got.Severity)
	assert.Equal(t, "x", got.Content)
}

func TestDispatchBroadcast(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("broadcast", "hi")
	require.NoError(t, err)

	var got string

	dispatch(context.Background(), "myplugin", n, Handlers{
		OnBroadcast: func(_ context.Context, _ string, text string) { got = text },
	})

	assert.Equal(t, "hi", got)
}

func TestDispatchWriteln(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("writeln", "verbatim line")
	require.NoError(t, err)

	var got string

	dispatch(context.Background(), "myplugin", n, Handlers{
		OnWriteln: func(_ context.Context, _ string, text string) { got = text },
	})

	assert.Equal(t, "verbatim line", got)
}

func TestDispatchRegisterMatcher(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("register_matcher", rpc.RegisterMatcherParams{
		Regexes:   []string{"^hello$"},
		TimeoutMS: 500,
	})
	require.NoError(t, err)

	var got rpc.RegisterMatcherParams

	dispatch(context.Background(), "myplugin", n, Handlers{
		OnRegisterMatcher: func(_ context.Context, _ string, params rpc.RegisterMatcherParams) { got = params },
	})

	assert.Equal(t, []string{"^hello$"}, got.Regexes)
	assert.Equal(t, int64(500), got.TimeoutMS)
}

func TestDispatchUnknownMethodIsIgnored(t *testing.T) {
	t.Parallel()

	n, err := rpc.NewNotification("some_future_method", nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		dispatch(context.Background(), "myplugin", n, Handlers{}) //nolint:exhaustruct // zero handlers is the point of the test
	})
}

func TestDispatchRequestIsIgnored(t *testing.T) {
	t.Parallel()

	req := rpc.Request{ID: rpc.NewIntID(1), Method: "broadcast", Params: nil}

	called := false

	dispatch(context.Background(), "myplugin", req, Handlers{
		OnBroadcast: func(context.Context, string, string) { called = true },
	})

	assert.False(t, called)
}
