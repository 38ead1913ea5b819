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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/suite"
	"compiletest.org/go/internal/envflag"
	"compiletest.org/go/internal/runner"
)

func newRunCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [filter...]",
		Short: "run test suites against the compiler under test",
		Long: `Run discovers the fixtures of the selected suites, executes them, and
reports every failing or ignored test followed by a summary line.

Positional arguments are substring filters on test names:

	compiletest run --suite ui borrowck issue-12470

runs only ui fixtures whose path mentions a filter. The command exits
non-zero if any test fails.`,
		RunE: mkRunE(c, doRun),
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func doRun(cmd *Command, args []string) error {
	return runSuites(cmd, args, flagBless.Bool(cmd), nil)
}

// runSuites is the shared engine of run and bless. When only is non-nil
// it restricts which suite modes are selected.
func runSuites(cmd *Command, filters []string, bless bool, only func(suite.Mode) bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var debug debugFlags
	if err := envflag.Init(&debug, "COMPILETEST"); err != nil {
		return err
	}

	specs, err := cfg.selectSuites(cmd)
	if err != nil {
		return err
	}
	if only != nil {
		var kept []suiteSpec
		for _, s := range specs {
			if only(s.mode) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return fmt.Errorf("no selected suite matches this command")
		}
		specs = kept
	}

	var tests []*suite.Test
	for _, s := range specs {
		st, err := suite.Load(s.mode, s.root, filters)
		if err != nil {
			// Malformed fixtures fail the run, but the remaining tests
			// still execute so one bad file does not hide the rest.
			fmt.Fprintf(cmd.Stderr(), "suite %s:\n", s.mode)
			errors.Print(cmd.Stderr(), err)
		}
		tests = append(tests, st...)
	}
	if len(tests) == 0 {
		return fmt.Errorf("no tests selected")
	}

	jobs := flagJobs.Int(cmd)
	if jobs == 0 {
		jobs = cfg.Jobs
	}

	r, err := runner.New(runner.Config{
		Compiler:    cfg.compiler(cmd),
		Rustdoc:     cfg.rustdoc(cmd),
		Scratch:     flagScratch.String(cmd),
		KeepScratch: debug.KeepScratch,
		Target:      cfg.target(cmd),
		Bless:       bless,
		Verbose:     flagVerbose.Bool(cmd) || debug.Verbose,
		Jobs:        jobs,
		Timeout:     flagTimeout.Duration(cmd),
		Stderr:      cmd.OutOrStderr(),
	})
	if err != nil {
		return err
	}

	results, sum, err := r.Run(cmd.Context(), tests)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	verbose := flagVerbose.Bool(cmd) || debug.Verbose
	for _, res := range results {
		switch res.Status {
		case runner.Fail:
			fmt.Fprintf(cmd.Stderr(), "--- FAILED: [%s] %s (%.2fs)\n",
				res.Test.Mode, res.Test.Name, res.Elapsed.Seconds())
			errors.Print(cmd.Stderr(), res.Err)
		case runner.Ignored:
			if verbose {
				fmt.Fprintf(w, "--- ignored: [%s] %s (%s)\n",
					res.Test.Mode, res.Test.Name, res.Reason)
			}
		}
	}

	p := message.NewPrinter(getLang())
	p.Fprintf(w, "test result: %d passed; %d failed; %d ignored; finished in %.2fs\n",
		sum.Passed, sum.Failed, sum.Ignored, sum.Elapsed.Seconds())
	if verbose {
		fmt.Fprintf(w, "run id: %s\n", sum.RunID)
	}

	if sum.Failed > 0 {
		return ErrPrintedError
	}
	return nil
}

func getLang() language.Tag {
	loc := os.Getenv("LC_ALL")
	if loc == "" {
		loc = os.Getenv("LANG")
	}
	loc = strings.Split(loc, ".")[0]
	return language.Make(loc)
}
