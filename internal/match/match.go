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

// Package match checks the diagnostics a compiler produced against the
// expectations a fixture declares.
package match

import (
	"path/filepath"
	"strings"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/expect"
	"compiletest.org/go/compiletest/token"
	"compiletest.org/go/internal/diag"
)

// Options configures a matching run.
type Options struct {
	// File is the fixture file the expectations come from. Diagnostics
	// are compared against it by base name, as compilers print the path
	// they were given.
	File string

	// AllowUnmatchedWarnings leaves warnings that no expectation claims
	// unreported. Errors are always reported.
	AllowUnmatchedWarnings bool
}

// Diagnostics checks every expectation against the produced diagnostics.
// Each diagnostic satisfies at most one expectation. The returned error,
// if non-nil, is an errors.List with one entry per unmet expectation and
// per unexpected diagnostic.
func Diagnostics(exps []expect.Expectation, diags []diag.Diagnostic, opts Options) error {
	var errs errors.List
	used := make([]bool, len(diags))

	for _, e := range exps {
		found := false
		for i, d := range diags {
			if used[i] || !satisfies(e, d, opts.File) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			what := e.Pattern
			if e.Code != "" {
				what = strings.TrimSpace(what + " [" + e.Code + "]")
			}
			errs.AddNewf(e.Pos, "expected %s on line %d not reported: %s", e.Kind, e.Line, what)
		}
	}

	for i, d := range diags {
		if used[i] {
			continue
		}
		switch d.Level {
		case diag.LevelError, diag.LevelICE:
			errs.AddNewf(d.Pos, "unexpected error: %s", d.Message)
		case diag.LevelWarning:
			if !opts.AllowUnmatchedWarnings {
				errs.AddNewf(d.Pos, "unexpected warning: %s", d.Message)
			}
		}
		// Stray notes and helps attach to diagnostics already reported;
		// they fail a test only when an expectation names them.
	}

	return errs.Err()
}

func satisfies(e expect.Expectation, d diag.Diagnostic, file string) bool {
	if !sameFile(file, d.Pos.Filename) {
		return false
	}
	if d.Pos.Line != e.Line {
		return false
	}
	if !levelMatches(e.Kind, d.Level) {
		return false
	}
	if e.Code != "" && e.Code != d.Code {
		return false
	}
	return strings.Contains(d.Message, e.Pattern)
}

func levelMatches(k expect.Kind, l diag.Level) bool {
	switch k {
	case expect.Error:
		return l == diag.LevelError || l == diag.LevelICE
	case expect.Warning:
		return l == diag.LevelWarning
	case expect.Note:
		return l == diag.LevelNote || l == diag.LevelFailureNote
	case expect.Help, expect.Suggestion:
		return l == diag.LevelHelp
	}
	return false
}

func sameFile(fixture, reported string) bool {
	if reported == "" {
		// Diagnostics without a span (e.g. whole-crate errors) may
		// satisfy expectations only by line 1 annotations; be lenient
		// and let line matching decide.
		return true
	}
	return filepath.Base(filepath.ToSlash(reported)) == filepath.Base(filepath.ToSlash(fixture))
}

// Patterns verifies that every error-pattern occurs as a substring of the
// combined compiler output.
func Patterns(patterns []string, output string) error {
	var errs errors.List
	for _, p := range patterns {
		if !strings.Contains(output, p) {
			errs.AddNewf(token.Position{}, "error pattern %q not found in compiler output", p)
		}
	}
	return errs.Err()
}
