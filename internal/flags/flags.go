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

// Package flags defines the command-line flags brickwarden accepts, as a
// thin wrapper around [pflag.FlagSet] that fills in the defaults spec.md §6
// assigns to the core CLI surface.
package flags

import "github.com/spf13/pflag"

// Default values for the top-level flags.
const (
	DefaultPort = 7777
)

// Top holds the parsed top-level flags of the default run command.
type Top struct {
	Port          int
	NoInstall     bool
	ServerVerbose bool
}

// NewTopFlagSet returns a flag set populated with the top-level flags
// described in spec.md §6, and the Top value it will fill in once Parse is
// called on the returned set.
func NewTopFlagSet(name string) (*pflag.FlagSet, *Top) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	top := &Top{} //nolint:exhaustruct // filled in below

	fs.IntVarP(&top.Port, "port", "p", DefaultPort, "game server port (recorded in the startup log; not passed to the server)")
	fs.BoolVar(&top.NoInstall, "no-install", false, "exit if the game server is not installed")
	fs.BoolVar(
		&top.ServerVerbose,
		"server-verbose",
		false,
		"echo every game-server stdout line, matched or not, to the debug log",
	)

	return fs, top
}

// UninstallFlags holds the flags accepted by the uninstall subcommand.
type UninstallFlags struct {
	IUnderstand bool
}

// NewUninstallFlagSet returns the flag set for the uninstall subcommand.
func NewUninstallFlagSet(name string) (*pflag.FlagSet, *UninstallFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	u := &UninstallFlags{}

	fs.BoolVar(
		&u.IUnderstand,
		"i-understand",
		false,
		"confirm that the server and all its data will be lost",
	)

	return fs, u
}
