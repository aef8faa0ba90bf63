package supervisor

import (
	"context"
	"testing"

	"github.com/brickwarden/brickwarden/internal/eventbus"
	"github.com/brickwarden/brickwarden/internal/matcher"
	"github.com/brickwarden/brickwarden/internal/pluginhost"
	"github.com/brickwarden/brickwarden/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSupervisor() *Supervisor {
	return &Supervisor{
		engine:     matcher.NewEngine(matcher.Chat(), matcher.Connect()),
		bus:        eventbus.New(),
		fanout:     eventbus.NewFanout(),
		plugins:    make(map[string]*pluginhost.Instance),
		registerCh: make(chan registerRequest, 64),
	}
}

func TestFeedChatLinePublishesToBus(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisor()

	sup.feed(context.Background(), "[2024.01.01-00.00.00:000][  5]LogChat: alice: hello world")

	select {
	case n := <-sup.bus.Notifications():
		assert.Equal(t, "chat", n.Method)
	default:
		t.Fatal("expected a chat notification on the bus")
	}
}

func TestFeedUnrecognizedLineIsIgnored(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisor()

	sup.feed(context.Background(), "garbage, not a log line")

	select {
	case n := <-sup.bus.Notifications():
		t.Fatalf("unexpected notification: %+v", n)
	default:
	}
}

func TestRegisterDynamicMatcherThenFeedCompletes(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisor()

	sup.registerDynamicMatcher(context.Background(), registerRequest{
		plugin: "myplugin",
		params: rpc.RegisterMatcherParams{Regexes: []string{`^Ping (?P<id>\d+)$`}, TimeoutMS: 1000},
	})

	sup.feed(context.Background(), "[2024.01.01-00.00.00:000][  0]Ping 7")

	select {
	case n := <-sup.bus.Notifications():
		assert.Equal(t, "matcher_captures", n.Method)

		params, err := rpc.DecodeParams[rpc.MatcherCapturesParams](n)
		require.NoError(t, err)
		require.Len(t, params.Captures, 1)
		assert.Equal(t, "7", params.Captures[0]["id"])
	default:
		t.Fatal("expected a matcher_captures notification on the bus")
	}
}
