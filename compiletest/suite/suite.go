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

// Package suite discovers and classifies the fixture files of a test
// suite directory.
package suite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/expect"
	"compiletest.org/go/compiletest/header"
	"compiletest.org/go/compiletest/token"
)

// Mode identifies how a suite's fixtures are executed.
type Mode string

const (
	CompileFail Mode = "compile-fail"
	RunPass     Mode = "run-pass"
	UI          Mode = "ui"
	Incremental Mode = "incremental"
	Rustdoc     Mode = "rustdoc"
)

var allModes = []Mode{CompileFail, RunPass, UI, Incremental, Rustdoc}

// ParseMode validates a mode name as given on the command line.
func ParseMode(s string) (Mode, error) {
	for _, m := range allModes {
		if s == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown suite mode %q (known: %s)", s, joinModes())
}

func joinModes() string {
	s := make([]string, len(allModes))
	for i, m := range allModes {
		s[i] = string(m)
	}
	return strings.Join(s, ", ")
}

// A Test is one discovered fixture.
type Test struct {
	// Name is the slash-separated path of the fixture relative to the
	// suite root, without the .rs extension.
	Name string

	Mode Mode

	// File is the path of the fixture on disk.
	File string

	// Root is the suite root the fixture was discovered under. Auxiliary
	// sources resolve against it as well as against the fixture's own
	// directory.
	Root string

	Props        *header.Props
	Expectations []expect.Expectation
}

// Revisions returns the declared revisions of the test, or the single
// empty revision for unrevisioned tests.
func (t *Test) Revisions() []string {
	if len(t.Props.Revisions) == 0 {
		return []string{""}
	}
	return t.Props.Revisions
}

// Load walks root and returns its fixtures in name order. Files under
// auxiliary/ directories are aux crates, not tests. Filters, if any,
// select tests whose name contains at least one filter as a substring.
//
// Malformed fixtures (bad annotations, undeclared revisions, compile-fail
// files that expect nothing) are reported as errors; well-formed fixtures
// from the same walk are still returned.
func Load(mode Mode, root string, filters []string) ([]*Test, error) {
	var (
		tests []*Test
		errs  errors.List
	)

	// The runner invokes the compiler from the fixture's directory, so
	// fixture paths must survive a working directory change.
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "auxiliary" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".rs" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".rs")
		if !matches(name, filters) {
			return nil
		}

		t, err := load(mode, name, path)
		if err != nil {
			errs.Add(err)
			return nil
		}
		t.Root = root
		tests = append(tests, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests, errs.Err()
}

func load(mode Mode, name, path string) (*Test, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var errs errors.List

	props, err := header.Parse(path, src)
	if err != nil {
		errs.Add(err)
	}
	exps, err := expect.Parse(path, src)
	if err != nil {
		errs.Add(err)
	}

	t := &Test{Name: name, Mode: mode, File: path, Props: props, Expectations: exps}
	validate(t, &errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func validate(t *Test, errs *errors.List) {
	for _, e := range t.Expectations {
		if e.Revision != "" && !declared(t.Props.Revisions, e.Revision) {
			errs.AddNewf(e.Pos, "annotation names undeclared revision %q", e.Revision)
		}
	}

	switch t.Mode {
	case CompileFail:
		if len(t.Expectations) == 0 && len(t.Props.ErrorPatterns) == 0 &&
			!t.Props.MustCompileSuccessfully {
			errs.AddNewf(pos(t), "compile-fail test expects no errors and no error-pattern")
		}
	case Incremental:
		if len(t.Props.Revisions) == 0 {
			errs.AddNewf(pos(t), "incremental test declares no revisions")
		}
		for _, r := range t.Props.Revisions {
			switch {
			case strings.HasPrefix(r, "rpass"),
				strings.HasPrefix(r, "cfail"),
				strings.HasPrefix(r, "rfail"):
			default:
				errs.AddNewf(pos(t), "incremental revision %q must start with rpass, cfail or rfail", r)
			}
		}
	}
}

func pos(t *Test) token.Position {
	return token.Position{Filename: t.File, Line: 1}
}

func declared(revs []string, r string) bool {
	for _, x := range revs {
		if x == r {
			return true
		}
	}
	return false
}

func matches(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}
