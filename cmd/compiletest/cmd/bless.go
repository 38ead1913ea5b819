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
	"github.com/spf13/cobra"

	"compiletest.org/go/compiletest/suite"
)

func newBlessCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bless [filter...]",
		Short: "re-record the golden output files of ui tests",
		Long: `Bless runs the selected ui suites and rewrites each test's .stderr and
.stdout files to match what the compiler currently produces. Inspect the
resulting diff before committing it.`,
		RunE: mkRunE(c, doBless),
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func doBless(cmd *Command, args []string) error {
	return runSuites(cmd, args, true, func(m suite.Mode) bool {
		return m == suite.UI
	})
}
