// Copyright 2024 The Compiletest Authors
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

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Common flags
const (
	flagBless   flagName = "bless"
	flagConfig  flagName = "config"
	flagJobs    flagName = "jobs"
	flagRustc   flagName = "rustc"
	flagRustdoc flagName = "rustdoc"
	flagScratch flagName = "scratch"
	flagSuite   flagName = "suite"
	flagTarget  flagName = "target"
	flagTimeout flagName = "timeout"
	flagVerbose flagName = "verbose"
)

func addGlobalFlags(f *pflag.FlagSet) {
	f.String(string(flagConfig), "",
		"config file (default compiletest.yaml in the working directory)")
	f.String(string(flagRustc), "",
		"path of the compiler under test (default from config or $RUSTC)")
	f.String(string(flagRustdoc), "",
		"path of the documentation generator (default from config or $RUSTDOC)")
	f.IntP(string(flagJobs), "j", 0,
		"number of tests to run concurrently")
	f.BoolP(string(flagVerbose), "v", false,
		"print information about progress")
	f.String(string(flagScratch), "",
		"directory for build products (default under the system temp dir)")
	f.String(string(flagTarget), "",
		"target triple used to evaluate ignore-*/only-* directives")
}

func addRunFlags(f *pflag.FlagSet) {
	f.StringArray(string(flagSuite), nil,
		"suite to run, as mode or mode=root (repeatable; default all configured suites)")
	f.Bool(string(flagBless), false,
		"update ui golden files instead of diffing against them")
	f.Duration(string(flagTimeout), 0,
		"timeout per compiler or test-binary invocation")
}

type flagName string

// ensureAdded detects if a flag is being used without it first being
// added to the flagSet. Because flagNames are global, it is quite easy to
// accidentally use a flag in a command without adding it to the flagSet.
func (f flagName) ensureAdded(cmd *Command) {
	if cmd.Flags().Lookup(string(f)) == nil {
		panic(fmt.Sprintf("Cmd %q uses flag %q without adding it", cmd.Name(), f))
	}
}

func (f flagName) Bool(cmd *Command) bool {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetBool(string(f))
	return v
}

func (f flagName) String(cmd *Command) string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetString(string(f))
	return v
}

func (f flagName) StringArray(cmd *Command) []string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetStringArray(string(f))
	return v
}

func (f flagName) Int(cmd *Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetInt(string(f))
	return v
}

func (f flagName) Duration(cmd *Command) time.Duration {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetDuration(string(f))
	return v
}
