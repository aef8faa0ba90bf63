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

// Package cli implements brickwardend's command-line surface: the default
// run command plus the install/uninstall/version subcommands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/brickwarden/brickwarden/internal/flags"
	"github.com/brickwarden/brickwarden/internal/fspath"
	"github.com/brickwarden/brickwarden/internal/logging"
	"github.com/brickwarden/brickwarden/internal/version"
)

// DataDir is the directory holding the game server's user data, the one
// piece of filesystem state spec.md §6 assigns to the core.
const DataDir = "data"

// A RunFunc starts and runs the supervisor to completion; it is injected so
// this package doesn't import internal/supervisor directly, keeping the CLI
// free to be tested without spawning real processes.
type RunFunc func(ctx context.Context, top *flags.Top) error

// Execute parses args (normally os.Args[1:]) and dispatches to the matching
// subcommand, returning the process exit code per spec.md §6: 0 on success,
// 1 on install/uninstall failure.
func Execute(ctx context.Context, args []string, run RunFunc) int {
	if len(args) == 0 {
		return executeRun(ctx, args, run)
	}

	switch args[0] {
	case "install":
		return executeInstall(ctx)
	case "uninstall":
		return executeUninstall(ctx, args[1:])
	case "version":
		return executeVersion()
	default:
		return executeRun(ctx, args, run)
	}
}

func executeRun(ctx context.Context, args []string, run RunFunc) int {
	fs, top := flags.NewTopFlagSet("brickwardend")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck // best effort diagnostic to stderr

		return 1
	}

	logging.Info(ctx, "starting brickwarden", "version", version.BuildVersion(), "port", top.Port)

	if top.NoInstall {
		installed, err := fspath.New(".", "data", "Saved", "Auth").Exists()
		if err != nil {
			logging.Error(ctx, "failed to check installation marker", "err", err)

			return 1
		}

		if !installed {
			logging.Error(ctx, "game server is not installed and --no-install was given")

			return 1
		}
	}

	if err := run(ctx, top); err != nil {
		logging.Error(ctx, "supervisor exited with an error", "err", err)

		return 1
	}

	return 0
}

// executeInstall is a stub: the real network installer/launcher is an
// out-of-scope external collaborator (spec.md §1), but the subcommand
// surface exists so scripts invoking brickwardend don't need a conditional
// for it.
func executeInstall(ctx context.Context) int {
	logging.Info(ctx, "installation is delegated to the external launcher; nothing to do")

	return 0
}

func executeUninstall(ctx context.Context, args []string) int {
	fs, u := flags.NewUninstallFlagSet("uninstall")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck // best effort diagnostic to stderr

		return 1
	}

	if !u.IUnderstand {
		logging.Warn(ctx, "refusing to remove data directory without --i-understand")

		return 0
	}

	if err := os.RemoveAll(DataDir); err != nil {
		logging.Error(ctx, "failed to remove data directory", "err", err)

		return 1
	}

	logging.Info(ctx, "removed data directory", "dir", DataDir)

	return 0
}

func executeVersion() int {
	fmt.Println(version.Report().String()) //nolint:forbidigo // this is the command's entire output

	return 0
}
