// Copyright 2025 The brickwarden Authors
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

// Package version reports brickwardend's own build identity and the
// JSON-RPC protocol version it speaks with plugins. The "version" CLI
// subcommand prints both, for an operator deciding whether their plugins
// are compatible with this build; the startup log line carries the build
// version only.
package version

import (
	"fmt"
	"runtime/debug"

	"github.com/anttikivi/semver"
	"github.com/brickwarden/brickwarden/internal/rpc"
)

// buildVersion is set at build time via -ldflags; "dev" means the binary
// was built with `go build`/`go run` rather than a release pipeline.
var buildVersion = "dev" //nolint:gochecknoglobals // set at build time

var version *semver.Version //nolint:gochecknoglobals // parsed once, see init

func init() { //nolint:gochecknoinits // version must be parsed once at the start
	if buildVersion == "dev" {
		version = semver.MustParse("0.0.0-dev-" + sanitizePrerelease(Revision()))

		return
	}

	version = semver.MustParse(buildVersion)
}

// sanitizePrerelease keeps s a valid semver prerelease identifier
// (`[0-9A-Za-z-]+`), replacing anything else with a hyphen.
func sanitizePrerelease(s string) string {
	out := make([]rune, 0, len(s))

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}

	return string(out)
}

// BuildVersion returns the raw version string set at build time, or "dev"
// for a non-release build.
func BuildVersion() string {
	return buildVersion
}

// Revision returns the version control revision this binary was built
// from, with a "-dirty" suffix if the working tree had local modifications,
// or "no-vcs"/"no-buildinfo" when that information isn't available.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "no-buildinfo"
	}

	var revision, dirty string

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "-dirty"
			}
		}
	}

	if revision == "" {
		return "no-vcs"
	}

	return revision + dirty
}

// Version returns the parsed semantic version of this binary.
func Version() *semver.Version {
	return version
}

// Info is the full version identity the "version" subcommand reports: the
// binary's own version plus the wire protocol version plugins must speak to
// talk to it.
type Info struct {
	Build    string
	Revision string
	Protocol string
}

// Report gathers the version identity of the running binary.
func Report() Info {
	return Info{
		Build:    Version().String(),
		Revision: Revision(),
		Protocol: rpc.JSONRPCVersion,
	}
}

// String formats Info as the single line the "version" subcommand prints:
// "<build> (<revision>, rpc <protocol>)".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, rpc %s)", i.Build, i.Revision, i.Protocol)
}
