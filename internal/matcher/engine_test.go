package matcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/brickwarden/brickwarden/internal/matcher"
	"github.com/brickwarden/brickwarden/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineRecognizesWellFormedLines(t *testing.T) {
	t.Parallel()

	rec, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  5]LogChat: alice: hello world")
	require.True(t, ok)
	assert.Equal(t, int32(5), rec.Index)
	assert.Equal(t, "LogChat: alice: hello world", rec.Body)
}

func TestParseLineRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	_, ok := matcher.ParseLine("not a log line at all")
	assert.False(t, ok)
}

func TestEngineChatRoundTrip(t *testing.T) {
	t.Parallel()

	e := matcher.NewEngine(matcher.Chat())

	rec, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  5]LogChat: alice: hello world")
	require.True(t, ok)

	notifications := e.Feed(context.Background(), rec)
	require.Len(t, notifications, 1)
	assert.Equal(t, "chat", notifications[0].Method)

	params, err := rpc.DecodeParams[rpc.ChatParams](notifications[0])
	require.NoError(t, err)
	assert.Equal(t, "alice", params.User)
	assert.Equal(t, "hello world", params.Message)
}

func TestEngineConnectFourLineSequence(t *testing.T) {
	t.Parallel()

	e := matcher.NewEngine(matcher.Connect())

	lines := []string{
		"[2024.01.01-00.00.00:000][ 42]LogServerList: Auth payload valid. Result:",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserName: Bob",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserId: 12345678-1234-5678-1234-567812345678",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: HandleId: somehandle",
	}

	var final []rpc.Notification

	for _, line := range lines {
		rec, ok := matcher.ParseLine(line)
		require.True(t, ok)

		final = e.Feed(context.Background(), rec)
	}

	require.Len(t, final, 1)
	assert.Equal(t, "connect", final[0].Method)

	params, err := rpc.DecodeParams[rpc.ConnectParams](final[0])
	require.NoError(t, err)
	assert.Equal(t, "Bob", params.Name)
	assert.Equal(t, "12345678-1234-5678-1234-567812345678", params.UUID)
}

func TestEngineConnectInterleavedAtOtherIndexDoesNotAdvance(t *testing.T) {
	t.Parallel()

	e := matcher.NewEngine(matcher.Connect())

	step1, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][ 42]LogServerList: Auth payload valid. Result:")
	require.True(t, ok)
	e.Feed(context.Background(), step1)

	other, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  1]LogServerList: UserName: Eve")
	require.True(t, ok)

	notifications := e.Feed(context.Background(), other)
	assert.Empty(t, notifications)

	step2, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][ 42]LogServerList: UserName: Bob")
	require.True(t, ok)
	e.Feed(context.Background(), step2)

	step3, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][ 42]LogServerList: UserId: 12345678-1234-5678-1234-567812345678")
	require.True(t, ok)
	e.Feed(context.Background(), step3)

	step4, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][ 42]LogServerList: HandleId: h")
	require.True(t, ok)

	final := e.Feed(context.Background(), step4)
	require.Len(t, final, 1)
	assert.Equal(t, "connect", final[0].Method)
}

func TestEngineInvalidUUIDFailsTheEventNotTheEngine(t *testing.T) {
	t.Parallel()

	e := matcher.NewEngine(matcher.Connect())

	lines := []string{
		"[2024.01.01-00.00.00:000][ 42]LogServerList: Auth payload valid. Result:",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserName: Bob",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserId: not-a-uuid",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: HandleId: h",
	}

	var final []rpc.Notification

	for _, line := range lines {
		rec, ok := matcher.ParseLine(line)
		require.True(t, ok)

		final = e.Feed(context.Background(), rec)
	}

	assert.Empty(t, final)
}

func TestEngineSeedingIsIndependentOfAdvancing(t *testing.T) {
	t.Parallel()

	// A record that completes an active two-step instance must still seed
	// (and here, immediately complete) a single-step matcher whose first
	// regex also applies to it.
	twoStep, err := matcher.NewDynamic("two-step", rpc.RegisterMatcherParams{
		Regexes: []string{`^start$`, `^B: (?P<value>.+)$`},
	})
	require.NoError(t, err)

	oneStep, err := matcher.NewDynamic("one-step", rpc.RegisterMatcherParams{
		Regexes: []string{`^B: (?P<value>.+)$`},
	})
	require.NoError(t, err)

	e := matcher.NewEngine(twoStep, oneStep)

	start, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  5]start")
	require.True(t, ok)
	assert.Empty(t, e.Feed(context.Background(), start))

	rec, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  5]B: x")
	require.True(t, ok)

	notifications := e.Feed(context.Background(), rec)
	require.Len(t, notifications, 2)

	advanced, err := rpc.DecodeParams[rpc.MatcherCapturesParams](notifications[0])
	require.NoError(t, err)
	require.Len(t, advanced.Captures, 2)
	assert.Equal(t, "x", advanced.Captures[1]["value"])

	seeded, err := rpc.DecodeParams[rpc.MatcherCapturesParams](notifications[1])
	require.NoError(t, err)
	require.Len(t, seeded.Captures, 1)
	assert.Equal(t, "x", seeded.Captures[0]["value"])
}

func TestEngineGarbageCollectsExpiredInstances(t *testing.T) {
	t.Parallel()

	connect := matcher.Connect()
	connect.Timeout = 10 * time.Millisecond

	e := matcher.NewEngine(connect)

	for _, line := range []string{
		"[2024.01.01-00.00.00:000][ 42]LogServerList: Auth payload valid. Result:",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserName: Bob",
		"[2024.01.01-00.00.00:000][ 42]LogServerList: UserId: 12345678-1234-5678-1234-567812345678",
	} {
		rec, ok := matcher.ParseLine(line)
		require.True(t, ok)
		e.Feed(context.Background(), rec)
	}

	time.Sleep(20 * time.Millisecond)

	// Feeding an unrelated line forces a garbage-collection pass.
	unrelated, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  1]LogChat: a: b")
	require.True(t, ok)
	e.Feed(context.Background(), unrelated)

	step4, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][ 42]LogServerList: HandleId: h")
	require.True(t, ok)

	// The three-step instance should have been reaped, so the final line has
	// nothing to complete and does not match connect's first regex either.
	final := e.Feed(context.Background(), step4)
	assert.Empty(t, final)
}

func TestNewDynamicRegisterMatcherSingleRegexCompletesImmediately(t *testing.T) {
	t.Parallel()

	m, err := matcher.NewDynamic("plugin-matcher", rpc.RegisterMatcherParams{
		Regexes:   []string{`^Hello (?P<name>\w+)$`},
		TimeoutMS: 1000,
	})
	require.NoError(t, err)

	e := matcher.NewEngine(m)

	rec, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  0]Hello World")
	require.True(t, ok)

	notifications := e.Feed(context.Background(), rec)
	require.Len(t, notifications, 1)
	assert.Equal(t, "matcher_captures", notifications[0].Method)

	params, err := rpc.DecodeParams[rpc.MatcherCapturesParams](notifications[0])
	require.NoError(t, err)
	require.Len(t, params.Captures, 1)
	assert.Equal(t, "World", params.Captures[0]["name"])
}

func TestNewDynamicRegisterMatcherKeepsCapturesPerRegexPosition(t *testing.T) {
	t.Parallel()

	// Two regex positions reuse the group name "value"; a flattened map
	// would lose the first position's capture to the second's.
	m, err := matcher.NewDynamic("plugin-matcher", rpc.RegisterMatcherParams{
		Regexes:   []string{`^A: (?P<value>.+)$`, `^B: (?P<value>.+)$`},
		TimeoutMS: 1000,
	})
	require.NoError(t, err)

	e := matcher.NewEngine(m)

	first, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  0]A: first")
	require.True(t, ok)
	e.Feed(context.Background(), first)

	second, ok := matcher.ParseLine("[2024.01.01-00.00.00:000][  0]B: second")
	require.True(t, ok)

	notifications := e.Feed(context.Background(), second)
	require.Len(t, notifications, 1)
	assert.Equal(t, "matcher_captures", notifications[0].Method)

	params, err := rpc.DecodeParams[rpc.MatcherCapturesParams](notifications[0])
	require.NoError(t, err)
	require.Len(t, params.Captures, 2)
	assert.Equal(t, "first", params.Captures[0]["value"])
	assert.Equal(t, "second", params.Captures[1]["value"])
}

func TestNewDynamicRejectsNoRegexes(t *testing.T) {
	t.Parallel()

	_, err := matcher.NewDynamic("empty", rpc.RegisterMatcherParams{})
	require.Error(t, err)
}
