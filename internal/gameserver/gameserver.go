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

// Package gameserver owns the supervised game-server child process: its
// command line, its stdin pump, and its stdout exposed as a line stream for
// the match engine.
package gameserver

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/panichandler"
	"github.com/brickwarden/brickwarden/internal/procgroup"
)

// inboxSize bounds the stdin queue the same way pluginhost's does.
const inboxSize = 4096

// shutdownTimeout is how long Stop waits for the game server's process
// group to exit after SIGTERM before escalating to SIGKILL.
const shutdownTimeout = 10 * time.Second

// Options composes the game server's command line and environment.
type Options struct {
	// InstallPath is the directory containing the game-server executable.
	InstallPath fspath.Path

	// Executable is the name of the game-server binary within InstallPath.
	Executable string

	// DataDir is the directory the server stores its user data under.
	DataDir fspath.Path

	// User and Password are the server's login credentials, passed as
	// -User= and -Password= flags when non-empty.
	User     string
	Password string

	// Verbose, when true, also echoes every raw stdout line to the debug
	// log, independent of whether the log-line parser recognized it.
	Verbose bool
}

// args builds the game server's command-line arguments from opts. -NotInstalled
// and -log are always present; the server otherwise behaves as an installed
// build and writes its log to stdout only when -log is given.
func (o Options) args() []string {
	args := []string{"-NotInstalled", "-log", "-UserDir=" + o.DataDir.String()}

	if o.User != "" {
		args = append(args, "-User="+o.User)
	}

	if o.Password != "" {
		args = append(args, "-Password="+o.Password)
	}

	return args
}

// A Server is the running game-server child process.
type Server struct {
	opts Options

	cmd    *exec.Cmd
	inbox  chan string
	lines  chan string
	exited chan struct{}
}

// Start launches the game server named by opts and begins pumping its
// stdin and streaming its stdout lines.
func Start(ctx context.Context, opts Options) (*Server, error) {
	exePath := opts.InstallPath.Join(opts.Executable)

	cmd := exec.CommandContext(ctx, exePath.String(), opts.args()...) //nolint:gosec // executable path is operator-configured
	cmd.Dir = opts.InstallPath.String()

	procgroup.Configure(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe for game server: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe for game server: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start game server: %w", err)
	}

	srv := &Server{
		opts:   opts,
		cmd:    cmd,
		inbox:  make(chan string, inboxSize),
		lines:  make(chan string, inboxSize),
		exited: make(chan struct{}),
	}

	go func() {
		defer panichandler.WithStackTrace()()

		for {
			select {
			case line, ok := <-srv.inbox:
				if !ok {
					return
				}

				if _, err := stdin.Write([]byte(line + "\n")); err != nil {
					logging.Warn(ctx, "game server stdin write failed, pump stopping", "err", err)

					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer panichandler.WithStackTrace()()
		defer close(srv.lines)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()

			if opts.Verbose {
				logging.Debug(ctx, "game server stdout", "line", line)
			}

			select {
			case srv.lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer panichandler.WithStackTrace()()

		_ = cmd.Wait() //nolint:errcheck // exit status surfaces via Stop's caller, not here

		close(srv.exited)
	}()

	return srv, nil
}

// Lines returns the channel of raw stdout lines for the match engine to
// parse. It is closed once the game server's stdout has been fully read.
func (s *Server) Lines() <-chan string {
	return s.lines
}

// Writeln enqueues text, verbatim, to be written to the server's stdin
// followed by a newline. It is non-blocking; if the inbox is full the line
// is dropped and a warning is logged, since a full inbox means the server
// is not keeping up and back-pressure has nowhere useful to go.
func (s *Server) Writeln(ctx context.Context, text string) {
	select {
	case s.inbox <- text:
	default:
		logging.Warn(ctx, "game server stdin inbox full, dropping line")
	}
}

// Broadcast enqueues a `Chat.Broadcast <text>` console command, the form
// the plugin `broadcast` method translates to, per spec.md §4.3.
func (s *Server) Broadcast(ctx context.Context, text string) {
	s.Writeln(ctx, "Chat.Broadcast "+text)
}

// Stop signals the game server's process group with SIGTERM, escalating to
// SIGKILL if it hasn't exited within the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	defer close(s.inbox)

	if err := procgroup.Stop(ctx, s.cmd, shutdownTimeout, s.exited); err != nil {
		return fmt.Errorf("failed to stop game server: %w", err)
	}

	return nil
}
