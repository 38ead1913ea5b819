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

	"github.com/spf13/cobra"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/suite"
)

func newListCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [filter...]",
		Short: "list the tests of the selected suites without running them",
		RunE:  mkRunE(c, doList),
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func doList(cmd *Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	specs, err := cfg.selectSuites(cmd)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, s := range specs {
		tests, err := suite.Load(s.mode, s.root, args)
		if err != nil {
			fmt.Fprintf(cmd.Stderr(), "suite %s:\n", s.mode)
			errors.Print(cmd.Stderr(), err)
		}
		for _, t := range tests {
			revs := ""
			if len(t.Props.Revisions) > 0 {
				revs = fmt.Sprintf(" (revisions: %v)", t.Props.Revisions)
			}
			fmt.Fprintf(w, "[%s] %s%s\n", t.Mode, t.Name, revs)
		}
	}
	return nil
}
