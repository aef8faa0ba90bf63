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

// Package eventbus implements the single multi-producer channel that
// carries RPC notifications from every source in brickwarden — the
// built-in matchers, plugin-registered dynamic matchers' completions, and
// any future producer — to the supervisor, which fans each one out to every
// live plugin.
package eventbus

import (
	"context"
	"sync"

	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/rpc"
)

// queueSize bounds the bus's internal channel. Producers (matcher
// completions) are infrequent relative to plugin line traffic, so a modest
// buffer absorbs bursts without the channel becoming a second source of
// back-pressure.
const queueSize = 256

// A Bus is a multi-producer, single-consumer queue of notifications awaiting
// fan-out to plugins.
type Bus struct {
	ch        chan rpc.Notification
	closeOnce sync.Once
}

// New returns a ready-to-use Bus.
func New() *Bus {
	return &Bus{ch: make(chan rpc.Notification, queueSize)} //nolint:exhaustruct // closeOnce zero value is usable
}

// Publish enqueues n for delivery to every live plugin. Publish blocks if
// the bus's internal queue is full; it never drops a notification silently.
// It returns ctx.Err() if ctx is done before n can be enqueued. It must not
// be called after [Bus.Close]: a send on the closed channel panics.
func (b *Bus) Publish(ctx context.Context, n rpc.Notification) error {
	select {
	case b.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // context errors are idiomatically returned bare
	}
}

// TryPublish enqueues n without blocking. It reports whether n was
// enqueued; a false return means the bus's internal queue was full and the
// notification was not delivered. The coordinator uses this when it is
// itself both the sole producer and, a moment later in the same select
// loop, the consumer, where a blocking Publish would deadlock.
func (b *Bus) TryPublish(n rpc.Notification) bool {
	select {
	case b.ch <- n:
		return true
	default:
		return false
	}
}

// Close closes the bus's underlying channel; [Bus.Publish] and
// [Bus.TryPublish] panic if called afterwards. It is safe to call more than
// once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
	})
}

// Notifications returns the channel the coordinator drains. It is closed
// once [Bus.Close] has been called and all previously published
// notifications have been received.
func (b *Bus) Notifications() <-chan rpc.Notification {
	return b.ch
}

// A Fanout is a registry of the live plugins' inboxes a drained
// notification is broadcast to.
type Fanout struct {
	mu     sync.RWMutex
	inboxs map[string]chan<- string
}

// NewFanout returns an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{inboxs: make(map[string]chan<- string)} //nolint:exhaustruct // mu zero value is usable
}

// Register adds a plugin's inbound stdin channel to the fan-out set under
// name.
func (f *Fanout) Register(name string, inbox chan<- string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inboxs[name] = inbox
}

// Unregister removes a plugin from the fan-out set, e.g. once its process
// has exited.
func (f *Fanout) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inboxs, name)
}

// Broadcast delivers n to every currently registered plugin. Delivery is
// best-effort and non-blocking: a plugin whose inbox is momentarily full
// does not block delivery to the others, and does not retry. It returns the
// names of the plugins delivery was skipped for.
func (f *Fanout) Broadcast(ctx context.Context, n rpc.Notification) []string {
	line, err := rpc.Encode(n)
	if err != nil {
		logging.Warn(ctx, "failed to encode notification for fan-out", "method", n.Method, "err", err)

		return nil
	}

	// Encode already appended the trailing newline; the plugin inbox channel
	// carries unframed lines (the stdin pump appends the newline itself), so
	// strip it back off here.
	s := string(line[:len(line)-1])

	f.mu.RLock()
	defer f.mu.RUnlock()

	var skipped []string

	for name, inbox := range f.inboxs {
		select {
		case inbox <- s:
		default:
			skipped = append(skipped, name)
		}
	}

	return skipped
}
