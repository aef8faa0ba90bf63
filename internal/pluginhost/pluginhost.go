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

// Package pluginhost spawns and supervises plugin child processes: one
// stdin-pump goroutine and one stdout-router goroutine per plugin, dispatch
// of the plugin-facing RPC method table, and process-group-based shutdown.
package pluginhost

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/manifest"
	"github.com/brickwarden/brickwarden/internal/panichandler"
	"github.com/brickwarden/brickwarden/internal/procgroup"
	"github.com/brickwarden/brickwarden/internal/rpc"
)

// inboxSize bounds a plugin's outbound stdin queue. The channel is not
// unbounded: the supervisor never blocks on a slow plugin, and once a
// plugin's inbox holds inboxSize lines, [eventbus.Fanout.Broadcast] skips
// that plugin and the notification is not delivered to it.
const inboxSize = 4096

// shutdownTimeout is how long Stop waits for a plugin's process group to
// exit after SIGTERM before escalating to SIGKILL.
const shutdownTimeout = 5 * time.Second

// Handlers is the dispatch table for methods a plugin sends to the
// supervisor, per spec.md §4.3. Every field is optional; a nil handler
// means the method is silently ignored, matching the "unknown methods are
// ignored" forward-compatibility rule for the methods this table doesn't
// even list.
type Handlers struct {
	OnLog             func(ctx context.Context, plugin string, params rpc.LogParams)
	OnBroadcast       func(ctx context.Context, plugin string, text string)
	OnWriteln         func(ctx context.Context, plugin string, text string)
	OnRegisterMatcher func(ctx context.Context, plugin string, params rpc.RegisterMatcherParams)
}

// An Instance is one running plugin: its manifest, its child process, and
// the channel the stdin pump drains.
type Instance struct {
	Entry manifest.Entry

	cmd    *exec.Cmd
	inbox  chan string
	exited chan struct{}
}

// Name returns the plugin's manifest name, used to tag log lines and as the
// fan-out registry key.
func (inst *Instance) Name() string {
	return inst.Entry.Manifest.Name
}

// Inbox returns the channel the caller should register with the event bus's
// fan-out so broadcast notifications reach this plugin's stdin.
func (inst *Instance) Inbox() chan<- string {
	return inst.inbox
}

// Spawn launches the plugin executable named by entry with all three
// standard streams piped, and starts its stdin pump and stdout router.
// handlers.On* callbacks run on the stdout router goroutine; they must not
// block for long, since a slow handler delays processing of that plugin's
// own subsequent lines (but never another plugin's, since each plugin has
// its own router goroutine).
func Spawn(ctx context.Context, entry manifest.Entry, handlers Handlers) (*Instance, error) {
	cmd := exec.CommandContext(ctx, entry.Executable.String()) //nolint:gosec // executable path is validated by internal/manifest
	cmd.Dir = entry.Dir.String()

	procgroup.Configure(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe for plugin %q: %w", entry.Manifest.Name, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe for plugin %q: %w", entry.Manifest.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start plugin %q: %w", entry.Manifest.Name, err)
	}

	inst := &Instance{
		Entry:  entry,
		cmd:    cmd,
		inbox:  make(chan string, inboxSize),
		exited: make(chan struct{}),
	}

	go inst.pumpStdin(ctx, stdin)
	go inst.routeStdout(ctx, stdout, handlers)

	go func() {
		defer panichandler.WithStackTrace()()

		_ = cmd.Wait() //nolint:errcheck // exit status surfaces via Stop's caller, not here

		close(inst.exited)
	}()

	return inst, nil
}

// pumpStdin consumes inst.inbox and writes each line, newline-terminated,
// to the plugin's stdin. Any write error ends the pump; the plugin is then
// considered dead, with no panic propagation, per spec.md §4.3.
func (inst *Instance) pumpStdin(ctx context.Context, stdin io.Writer) {
	defer panichandler.WithStackTrace()()

	for {
		select {
		case line, ok := <-inst.inbox:
			if !ok {
				return
			}

			if _, err := stdin.Write([]byte(line + "\n")); err != nil {
				logging.Warn(ctx, "plugin stdin write failed, pump stopping", "plugin", inst.Name(), "err", err)

				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// routeStdout reads lines from the plugin's stdout, decodes each as an RPC
// message, and dispatches it through handlers by method.
func (inst *Instance) routeStdout(ctx context.Context, stdout io.Reader, handlers Handlers) {
	defer panichandler.WithStackTrace()()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		msg, err := rpc.Decode(line)
		if err != nil {
			logging.Warn(ctx, "plugin emitted malformed rpc line", "plugin", inst.Name(), "err", err)

			continue
		}

		if msg == nil {
			continue
		}

		dispatch(ctx, inst.Name(), msg, handlers)
	}
}

// dispatch routes one decoded message from a plugin to the matching
// handler, per the method table in spec.md §4.3. Unknown methods, and
// messages that aren't Notifications (the core vocabulary never uses
// Request/Response), are silently ignored.
func dispatch(ctx context.Context, plugin string, msg rpc.Message, handlers Handlers) {
	n, ok := msg.(rpc.Notification)
	if !ok {
		return
	}

	switch n.Method {
	case "log":
		if handlers.OnLog == nil {
			return
		}

		params, err := rpc.DecodeParams[rpc.LogParams](n)
		if err != nil {
			logging.Warn(ctx, "plugin log call had no valid payload", "plugin", plugin, "err", err)

			return
		}

		handlers.OnLog(ctx, plugin, params)
	case "broadcast":
		if handlers.OnBroadcast == nil {
			return
		}

		text, err := rpc.DecodeParams[string](n)
		if err != nil {
			logging.Warn(ctx, "plugin broadcast call had no valid payload", "plugin", plugin, "err", err)

			return
		}

		handlers.OnBroadcast(ctx, plugin, text)
	case "writeln":
		if handlers.OnWriteln == nil {
			return
		}

		text, err := rpc.DecodeParams[string](n)
		if err != nil {
			logging.Warn(ctx, "plugin writeln call had no valid payload", "plugin", plugin, "err", err)

			return
		}

		handlers.OnWriteln(ctx, plugin, text)
	case "register_matcher":
		if handlers.OnRegisterMatcher == nil {
			return
		}

		params, err := rpc.DecodeParams[rpc.RegisterMatcherParams](n)
		if err != nil {
			logging.Warn(ctx, "plugin register_matcher call had no valid payload", "plugin", plugin, "err", err)

			return
		}

		handlers.OnRegisterMatcher(ctx, plugin, params)
	default:
		logging.Trace(ctx, "ignoring unknown method from plugin", "plugin", plugin, "method", n.Method)
	}
}

// Stop sends SIGTERM to the plugin's process group, escalating to SIGKILL
// if it hasn't exited within the shutdown timeout, and closes its inbox so
// the stdin pump exits.
func (inst *Instance) Stop(ctx context.Context) error {
	defer close(inst.inbox)

	if err := procgroup.Stop(ctx, inst.cmd, shutdownTimeout, inst.exited); err != nil {
		return fmt.Errorf("failed to stop plugin %q: %w", inst.Name(), err)
	}

	return nil
}
