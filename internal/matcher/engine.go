package matcher

import (
	"context"
	"regexp"
	"time"

	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/rpc"
)

// AnyIndex lets an instance advance regardless of which emitter index a
// record arrives on. The engine's seeding always binds a new instance to
// the seeding record's index, so neither built-in nor dynamic matchers
// produce instances with this index.
const AnyIndex int32 = -1

// defaultTimeout is the timeout the built-in matchers use, per spec.md §5.
const defaultTimeout = time.Second

// A CompleteFunc turns a completed instance's accumulated captures into the
// notification published on the event bus. captures holds one map per
// regex position, in matcher order, per spec.md §3's data model. It returns
// an error if the captures can't be turned into a valid event (e.g. a
// malformed UUID); per the match-error policy, that is fatal for the one
// event, not for the engine.
type CompleteFunc func(captures []map[string]string) (rpc.Notification, error)

// A Matcher is a registered pattern: an ordered sequence of regexes that
// must match consecutively at the same emitter index, plus the handler
// invoked once all of them have.
type Matcher struct {
	Name     string
	Regexes  []*regexp.Regexp
	Timeout  time.Duration
	Complete CompleteFunc
}

// instance is one in-progress attempt to complete a Matcher. captures holds
// one map per completed regex position; its length is always strictly less
// than len(matcher.Regexes) while the instance lives, per spec.md §3.
type instance struct {
	matcher      *Matcher
	index        int32
	captures     []map[string]string
	lastProgress time.Time
}

// expired reports whether the instance has gone longer than its matcher's
// timeout without progress.
func (inst *instance) expired(now time.Time) bool {
	return now.After(inst.lastProgress.Add(inst.matcher.Timeout))
}

// An Engine holds the registered matchers and the active instances
// attempting to complete them. It is owned exclusively by the supervisor's
// single coordinator goroutine; spec.md §5 names this as the reason no lock
// guards it.
type Engine struct {
	registry []*Matcher
	active   []*instance
	now      func() time.Time
}

// NewEngine returns an Engine seeded with the given matchers, typically the
// built-ins from [Chat] and [Connect].
func NewEngine(matchers ...*Matcher) *Engine {
	return &Engine{
		registry: matchers,
		now:      time.Now,
	}
}

// Register adds a dynamically-registered matcher (e.g. from a plugin's
// register_matcher call) to the engine. Like Feed, Register must only be
// called from the engine's owning goroutine.
func (e *Engine) Register(m *Matcher) {
	e.registry = append(e.registry, m)
}

// Feed processes one parsed log record, returning the notifications
// produced by any matcher instance that completed as a result. It performs,
// in order: advance of one eligible active instance, seeding of new
// instances from every matcher whose first regex matches, and
// garbage-collection of instances that have timed out.
func (e *Engine) Feed(ctx context.Context, rec Record) []rpc.Notification {
	var completions []rpc.Notification

	if n, ok := e.advance(ctx, rec); ok {
		completions = append(completions, n)
	}

	completions = append(completions, e.seed(ctx, rec)...)

	e.gc()

	return completions
}

// advance looks for the first active instance (oldest first) eligible to
// consume rec, and advances it. At most one instance advances per record.
func (e *Engine) advance(ctx context.Context, rec Record) (rpc.Notification, bool) {
	for i, inst := range e.active {
		if inst.index != AnyIndex && inst.index != rec.Index {
			continue
		}

		step := len(inst.captures)
		re := inst.matcher.Regexes[step]

		groups, ok := namedGroups(re, rec.Body)
		if !ok {
			continue
		}

		inst.captures = append(inst.captures, groups)
		inst.lastProgress = e.now()

		if len(inst.captures) == len(inst.matcher.Regexes) {
			e.active = removeAt(e.active, i)

			return e.complete(ctx, inst.matcher, inst.captures)
		}

		return rpc.Notification{}, false //nolint:exhaustruct // zero value discarded by caller
	}

	return rpc.Notification{}, false //nolint:exhaustruct // zero value discarded by caller
}

// seed constructs a fresh instance for every registered matcher whose first
// regex matches rec, independently of whether a record also advanced an
// existing instance (spec.md §4.5 resolves this independence explicitly).
// Single-regex matchers complete and emit immediately without ever being
// retained as an active instance.
func (e *Engine) seed(ctx context.Context, rec Record) []rpc.Notification {
	var completions []rpc.Notification

	for _, m := range e.registry {
		if len(m.Regexes) == 0 {
			continue
		}

		groups, ok := namedGroups(m.Regexes[0], rec.Body)
		if !ok {
			continue
		}

		if len(m.Regexes) == 1 {
			if n, ok := e.complete(ctx, m, []map[string]string{groups}); ok {
				completions = append(completions, n)
			}

			continue
		}

		e.active = append(e.active, &instance{
			matcher:      m,
			index:        rec.Index,
			captures:     []map[string]string{groups},
			lastProgress: e.now(),
		})
	}

	return completions
}

// gc removes every active instance that has exceeded its matcher's timeout
// without progress.
func (e *Engine) gc() {
	now := e.now()

	kept := e.active[:0]

	for _, inst := range e.active {
		if inst.expired(now) {
			continue
		}

		kept = append(kept, inst)
	}

	e.active = kept
}

// complete invokes m's completion handler. A handler error is logged loudly
// and the event is dropped; per spec.md §7 this is an intentional
// invariant, not a crash condition, since well-formed game-server input
// should always satisfy the handler.
func (e *Engine) complete(ctx context.Context, m *Matcher, captures []map[string]string) (rpc.Notification, bool) {
	n, err := m.Complete(captures)
	if err != nil {
		logging.Error(ctx, "matcher completion handler failed", "matcher", m.Name, "err", err)

		return rpc.Notification{}, false //nolint:exhaustruct // zero value discarded by caller
	}

	return n, true
}

// namedGroups matches re against s and, on success, returns the named
// capture groups only (unnamed groups are ignored per spec.md §4.5).
func namedGroups(re *regexp.Regexp, s string) (map[string]string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}

	names := re.SubexpNames()
	groups := make(map[string]string, len(names))

	for i, name := range names {
		if i == 0 || name == "" {
			continue
		}

		groups[name] = m[i]
	}

	return groups, true
}

func removeAt(instances []*instance, i int) []*instance {
	next := make([]*instance, 0, len(instances)-1)
	next = append(next, instances[:i]...)
	next = append(next, instances[i+1:]...)

	return next
}
