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

// Package runner executes discovered fixtures against the compiler under
// test and reports per-test results.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"compiletest.org/go/compiletest/header"
	"compiletest.org/go/compiletest/suite"
)

// Config configures a Runner.
type Config struct {
	// Compiler is the path of the compiler under test.
	Compiler string

	// Rustdoc is the path of the documentation generator, required only
	// for rustdoc suites.
	Rustdoc string

	// Scratch is the directory for build products. Empty means a fresh
	// directory under the system temp dir.
	Scratch string

	// KeepScratch leaves build products on disk after the run.
	KeepScratch bool

	// Target describes the platform, for ignore-*/only-* directives.
	Target header.TargetConfig

	// Bless rewrites UI golden files instead of diffing against them.
	Bless bool

	Verbose bool

	// Jobs bounds concurrent test execution. Zero means one job.
	Jobs int

	// Timeout bounds each compiler or test-binary invocation.
	Timeout time.Duration

	// Stderr receives progress output. Nil means os.Stderr.
	Stderr io.Writer
}

const defaultTimeout = 5 * time.Minute

// Status is the outcome of a single test.
type Status int

const (
	Pass Status = iota
	Fail
	Ignored
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "ok"
	case Fail:
		return "FAILED"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

// A Result is the outcome of one test.
type Result struct {
	Test    *suite.Test
	Status  Status
	Err     error  // failure details, an errors.List for matching failures
	Reason  string // reason for Ignored
	Elapsed time.Duration
}

// A Summary aggregates the results of a run.
type Summary struct {
	// RunID identifies this run in scratch paths and verbose output.
	RunID string

	Passed  int
	Failed  int
	Ignored int
	Elapsed time.Duration
}

// A Runner executes tests.
type Runner struct {
	cfg     Config
	id      string
	scratch string
}

// New returns a Runner for the given configuration.
func New(cfg Config) (*Runner, error) {
	if cfg.Compiler == "" {
		return nil, fmt.Errorf("no compiler configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = 1
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	id := uuid.NewString()
	scratch := cfg.Scratch
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "compiletest-"+id)
	} else {
		scratch = filepath.Join(scratch, id)
	}
	if err := os.MkdirAll(scratch, 0o777); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	return &Runner{cfg: cfg, id: id, scratch: scratch}, nil
}

// ID returns the unique id of this run.
func (r *Runner) ID() string { return r.id }

// Run executes all tests, bounded by the configured number of jobs, and
// returns one Result per test in the same order.
func (r *Runner) Run(ctx context.Context, tests []*suite.Test) ([]Result, Summary, error) {
	start := time.Now()
	results := make([]Result, len(tests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Jobs)
	for i, t := range tests {
		i, t := i, t
		g.Go(func() error {
			results[i] = r.runTest(ctx, t)
			if r.cfg.Verbose {
				fmt.Fprintf(r.cfg.Stderr, "test [%s] %s ... %s\n", t.Mode, t.Name, results[i].Status)
			}
			return ctx.Err()
		})
	}
	err := g.Wait()

	if !r.cfg.KeepScratch {
		os.RemoveAll(r.scratch)
	}

	sum := Summary{RunID: r.id, Elapsed: time.Since(start)}
	for _, res := range results {
		switch res.Status {
		case Pass:
			sum.Passed++
		case Fail:
			sum.Failed++
		case Ignored:
			sum.Ignored++
		}
	}
	return results, sum, err
}

func (r *Runner) runTest(ctx context.Context, t *suite.Test) Result {
	start := time.Now()
	res := Result{Test: t}
	defer func() { res.Elapsed = time.Since(start) }()

	if skip, reason := t.Props.Ignored(r.cfg.Target); skip {
		res.Status = Ignored
		res.Reason = reason
		return res
	}

	dir := filepath.Join(r.scratch, sanitize(t.Name))
	if err := os.MkdirAll(dir, 0o777); err != nil {
		res.Status = Fail
		res.Err = err
		return res
	}

	var err error
	switch t.Mode {
	case suite.CompileFail:
		err = r.runCompileFail(ctx, t, dir)
	case suite.RunPass:
		err = r.runRunPass(ctx, t, dir)
	case suite.UI:
		err = r.runUI(ctx, t, dir)
	case suite.Incremental:
		err = r.runIncremental(ctx, t, dir)
	case suite.Rustdoc:
		err = r.runRustdoc(ctx, t, dir)
	default:
		err = fmt.Errorf("mode %s not implemented", t.Mode)
	}

	if err != nil {
		res.Status = Fail
		res.Err = err
	}
	return res
}

// sanitize turns a slash-separated test name into a single scratch
// directory component.
func sanitize(name string) string {
	return strings.ReplaceAll(name, "/", "__")
}
