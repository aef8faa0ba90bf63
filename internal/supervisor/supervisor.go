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

// Package supervisor wires together the game server, the plugin pool, the
// match engine, and the event bus into the single coordinator goroutine
// described in spec.md §5: it multiplexes game-server log lines, matcher
// completions, and dynamic matcher registrations through one fair select,
// and owns the shutdown sequence for everything it started.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/brickwarden/brickwarden/internal/eventbus"
	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/gameserver"
	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/manifest"
	"github.com/brickwarden/brickwarden/internal/matcher"
	"github.com/brickwarden/brickwarden/internal/panichandler"
	"github.com/brickwarden/brickwarden/internal/pluginhost"
	"github.com/brickwarden/brickwarden/internal/rpc"
	"golang.org/x/sync/errgroup"
)

// PluginRoot is the fixed directory plugin manifests are scanned from, per
// spec.md §4.2.
const PluginRoot = "plugins"

// registerRequest carries a plugin's register_matcher call to the
// coordinator, which is the only goroutine allowed to mutate the match
// engine's registry.
type registerRequest struct {
	plugin string
	params rpc.RegisterMatcherParams
}

// A Supervisor is a fully wired brickwarden instance: one game server, the
// plugins discovered under PluginRoot, and the coordinator tying them
// together.
type Supervisor struct {
	server  *gameserver.Server
	engine  *matcher.Engine
	bus     *eventbus.Bus
	fanout  *eventbus.Fanout
	plugins map[string]*pluginhost.Instance

	mu         sync.Mutex
	registerCh chan registerRequest
	dynamicSeq int
}

// New discovers plugins under root, starts the game server with opts, and
// spawns every discovered plugin, wiring each one's dispatch table into the
// returned Supervisor. It does not yet run the coordinator loop; call Run
// for that.
func New(ctx context.Context, root fspath.Path, opts gameserver.Options) (*Supervisor, error) {
	sup := &Supervisor{
		engine:     matcher.NewEngine(matcher.Chat(), matcher.Connect()),
		bus:        eventbus.New(),
		fanout:     eventbus.NewFanout(),
		plugins:    make(map[string]*pluginhost.Instance),
		registerCh: make(chan registerRequest, 64), //nolint:mnd // small bound, registration calls are rare
	}

	srv, err := gameserver.Start(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start game server: %w", err)
	}

	sup.server = srv

	entries, err := manifest.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plugin directory: %w", err)
	}

	for _, entry := range entries {
		if err := sup.spawnPlugin(ctx, entry); err != nil {
			logging.Warn(ctx, "failed to start plugin, skipping", "plugin", entry.Manifest.Name, "err", err)

			continue
		}
	}

	return sup, nil
}

func (sup *Supervisor) spawnPlugin(ctx context.Context, entry manifest.Entry) error {
	name := entry.Manifest.Name

	inst, err := pluginhost.Spawn(ctx, entry, pluginhost.Handlers{
		OnLog:             sup.handlePluginLog,
		OnBroadcast:       func(ctx context.Context, _ string, text string) { sup.server.Broadcast(ctx, text) },
		OnWriteln:         func(ctx context.Context, _ string, text string) { sup.server.Writeln(ctx, text) },
		OnRegisterMatcher: sup.handleRegisterMatcher,
	})
	if err != nil {
		return err
	}

	sup.mu.Lock()
	sup.plugins[name] = inst
	sup.mu.Unlock()

	sup.fanout.Register(name, inst.Inbox())
	logging.Info(ctx, "plugin started", "plugin", name)

	return nil
}

func (sup *Supervisor) handlePluginLog(ctx context.Context, plugin string, params rpc.LogParams) {
	logFn := logging.Info

	switch params.Severity {
	case rpc.LogSeverityTrace:
		logFn = logging.Trace
	case rpc.LogSeverityDebug:
		logFn = logging.Debug
	case rpc.LogSeverityInfo:
		logFn = logging.Info
	case rpc.LogSeverityWarn:
		logFn = logging.Warn
	case rpc.LogSeverityError:
		logFn = logging.Error
	}

	logFn(ctx, "["+plugin+"] "+params.Content)
}

func (sup *Supervisor) handleRegisterMatcher(ctx context.Context, plugin string, params rpc.RegisterMatcherParams) {
	select {
	case sup.registerCh <- registerRequest{plugin: plugin, params: params}:
	case <-ctx.Done():
	}
}

// Run is the coordinator loop: it multiplexes game-server log lines,
// matcher completions drained off the event bus, and dynamic matcher
// registrations, until ctx is canceled or the game server's stdout stream
// ends.
func (sup *Supervisor) Run(ctx context.Context) {
	defer panichandler.WithStackTrace()()

	for {
		select {
		case line, ok := <-sup.server.Lines():
			if !ok {
				logging.Info(ctx, "game server stdout closed, coordinator stopping")

				return
			}

			sup.feed(ctx, line)
		case n, ok := <-sup.bus.Notifications():
			if !ok {
				return
			}

			if skipped := sup.fanout.Broadcast(ctx, n); len(skipped) > 0 {
				logging.Warn(ctx, "broadcast skipped slow plugins", "method", n.Method, "plugins", skipped)
			}
		case req := <-sup.registerCh:
			sup.registerDynamicMatcher(ctx, req)
		case <-ctx.Done():
			return
		}
	}
}

func (sup *Supervisor) feed(ctx context.Context, line string) {
	rec, ok := matcher.ParseLine(line)
	if !ok {
		return
	}

	for _, n := range sup.engine.Feed(ctx, rec) {
		if !sup.bus.TryPublish(n) {
			logging.Warn(ctx, "event bus full, dropping notification", "method", n.Method)
		}
	}
}

func (sup *Supervisor) registerDynamicMatcher(ctx context.Context, req registerRequest) {
	sup.mu.Lock()
	sup.dynamicSeq++
	seq := sup.dynamicSeq
	sup.mu.Unlock()

	name := fmt.Sprintf("%s/register_matcher#%d", req.plugin, seq)

	m, err := matcher.NewDynamic(name, req.params)
	if err != nil {
		logging.Warn(ctx, "rejecting invalid register_matcher call", "plugin", req.plugin, "err", err)

		return
	}

	sup.engine.Register(m)
	logging.Debug(ctx, "registered dynamic matcher", "plugin", req.plugin, "name", name)
}

// Shutdown closes the event bus and stops the game server and every plugin
// concurrently, each bounded by its own SIGTERM→SIGKILL timeout, per the
// shutdown sequencing resolved in DESIGN.md.
func (sup *Supervisor) Shutdown(ctx context.Context) error {
	sup.bus.Close()

	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer panichandler.WithStackTrace()()

		return sup.server.Stop(gctx)
	})

	sup.mu.Lock()
	plugins := make([]*pluginhost.Instance, 0, len(sup.plugins))
	for _, inst := range sup.plugins {
		plugins = append(plugins, inst)
	}
	sup.mu.Unlock()

	for _, inst := range plugins {
		eg.Go(func() error {
			defer panichandler.WithStackTrace()()

			return inst.Stop(gctx)
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return nil
}
