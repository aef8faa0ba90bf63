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

// Command brickwardend is the supervisory process described in spec.md: it
// launches the Brickadia game server, discovers and hosts its plugins, and
// bridges log-derived events between them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brickwarden/brickwarden/internal/cli"
	"github.com/brickwarden/brickwarden/internal/flags"
	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/gameserver"
	"github.com/brickwarden/brickwarden/internal/iostreams"
	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/panichandler"
	"github.com/brickwarden/brickwarden/internal/supervisor"
)

// shutdownGrace bounds how long the final Shutdown call waits once the
// coordinator loop has already returned.
const shutdownGrace = 15 * time.Second

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}

func run() int {
	defer panichandler.Handle()

	if err := logging.InitBootstrap(); err != nil {
		os.Stderr.WriteString("failed to init bootstrap logger: " + err.Error() + "\n") //nolint:errcheck

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panichandler.SetCancel(cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	handlePanic := panichandler.WithStackTrace()
	go func() {
		defer handlePanic()

		select {
		case <-sigCh:
			logging.Info(ctx, "received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	streams := iostreams.New(iostreams.ColorAuto)

	if err := logging.Init(logging.Config{
		Format:  "text",
		Output:  "stderr",
		Level:   logging.LevelInfo,
		Enabled: true,
	}, streams); err != nil {
		os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n") //nolint:errcheck

		return 1
	}

	return cli.Execute(ctx, os.Args[1:], runSupervisor)
}

func runSupervisor(ctx context.Context, top *flags.Top) error {
	opts := gameserver.Options{
		InstallPath: fspath.New("."),
		Executable:  "BrickadiaServer",
		DataDir:     fspath.New(cli.DataDir),
		User:        os.Getenv("BRICKWARDEN_SERVER_USER"),
		Password:    os.Getenv("BRICKWARDEN_SERVER_PASSWORD"),
		Verbose:     top.ServerVerbose,
	}

	sup, err := supervisor.New(ctx, fspath.New(supervisor.PluginRoot), opts)
	if err != nil {
		return err
	}

	sup.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	return sup.Shutdown(shutdownCtx)
}
