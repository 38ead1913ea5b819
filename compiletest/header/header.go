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

// Package header parses the comment directives that configure how a
// fixture is compiled and run.
//
// Directives are comments of the form
//
//	// aux-build:helper.rs
//	// compile-flags: -C panic=abort
//	// revisions:rpass1 rpass2
//	// ignore-android needs extra network permissions
//
// A directive may be scoped to a single revision of a revisioned test:
//
//	//[rpass2] compile-flags: -Z query-dep-graph
//
// Comment lines that do not look like a known directive are ignored;
// fixtures carry ordinary prose comments in the same position.
package header

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/token"
)

// An EnvVar is a K=V pair passed to the environment of an executed test
// binary.
type EnvVar struct {
	Key   string
	Value string
}

// An Ignore records an ignore-<what> directive with its optional reason.
type Ignore struct {
	What   string // e.g. "android", "stage1", "test"
	Reason string
}

// Props holds the parsed directives of one fixture file.
type Props struct {
	// AuxBuilds lists aux-build files in declaration order. They are
	// compiled as libraries before the test itself.
	AuxBuilds []string

	// CompileFlags are extra flags for the compile invocation, in order.
	CompileFlags []string

	// RunFlags are extra arguments for the compiled test binary.
	RunFlags []string

	// ExecEnv is the extra environment for the executed test binary.
	ExecEnv []EnvVar

	// ErrorPatterns must each occur in the compiler output.
	ErrorPatterns []string

	// Revisions lists the declared revisions, in order, duplicates
	// removed.
	Revisions []string

	Edition string

	Ignores []Ignore
	Onlys   []string

	ForceHost               bool
	NoPreferDynamic         bool
	MustCompileSuccessfully bool
	RunPass                 bool
	PrettyExpanded          bool

	// byRevision holds directives scoped with a //[rev] prefix.
	byRevision map[string]*Props
}

// A TargetConfig describes the platform the harness is testing, used to
// evaluate ignore-* and only-* directives.
type TargetConfig struct {
	OS    string // e.g. "linux"
	Arch  string // e.g. "x86_64"
	Stage string // e.g. "1"
}

// Parse reads the directives of a fixture file.
func Parse(filename string, src []byte) (*Props, error) {
	p := &Props{}
	var errs errors.List

	s := bufio.NewScanner(bytes.NewReader(src))
	s.Buffer(nil, 1<<20)
	lineno := 0
	for s.Scan() {
		lineno++
		line := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(line, "//") {
			continue
		}
		rest := line[len("//"):]
		pos := token.Position{Filename: filename, Line: lineno, Column: 1}

		target := p
		if strings.HasPrefix(rest, "[") {
			// Revision-scoped directive. An annotation marker such as
			// //[rev]~ is not a directive and is skipped here.
			end := strings.Index(rest, "]")
			if end < 0 || strings.HasPrefix(rest[end+1:], "~") {
				continue
			}
			target = p.revision(rest[1:end])
			rest = rest[end+1:]
		}
		rest = strings.TrimSpace(rest)

		if err := target.apply(rest); err != nil {
			errs.Add(errors.Wrapf(err, pos, "invalid directive"))
		}
	}
	if err := s.Err(); err != nil {
		errs.Add(errors.Wrapf(err, token.Position{Filename: filename}, "reading fixture"))
	}
	return p, errs.Err()
}

func (p *Props) revision(rev string) *Props {
	if p.byRevision == nil {
		p.byRevision = make(map[string]*Props)
	}
	r := p.byRevision[rev]
	if r == nil {
		r = &Props{}
		p.byRevision[rev] = r
	}
	return r
}

// apply interprets a single directive line with the leading "//" and any
// revision scope removed. Unknown directives are ignored.
func (p *Props) apply(line string) error {
	name, value, hasValue := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if hasValue {
		switch name {
		case "aux-build":
			if value == "" {
				return fmt.Errorf("aux-build requires a file name")
			}
			p.AuxBuilds = append(p.AuxBuilds, value)
			return nil
		case "compile-flags":
			flags, err := shlex.Split(value)
			if err != nil {
				return fmt.Errorf("compile-flags: %v", err)
			}
			p.CompileFlags = append(p.CompileFlags, flags...)
			return nil
		case "run-flags":
			flags, err := shlex.Split(value)
			if err != nil {
				return fmt.Errorf("run-flags: %v", err)
			}
			p.RunFlags = append(p.RunFlags, flags...)
			return nil
		case "exec-env":
			k, v, _ := strings.Cut(value, "=")
			if k == "" {
				return fmt.Errorf("exec-env requires a variable name")
			}
			p.ExecEnv = append(p.ExecEnv, EnvVar{Key: k, Value: v})
			return nil
		case "error-pattern":
			if value == "" {
				return fmt.Errorf("error-pattern requires a pattern")
			}
			if !contains(p.ErrorPatterns, value) {
				p.ErrorPatterns = append(p.ErrorPatterns, value)
			}
			return nil
		case "revisions":
			for _, r := range strings.Fields(value) {
				if !contains(p.Revisions, r) {
					p.Revisions = append(p.Revisions, r)
				}
			}
			return nil
		case "edition":
			p.Edition = value
			return nil
		}
	}

	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch {
	case word == "force-host":
		p.ForceHost = true
	case word == "no-prefer-dynamic":
		p.NoPreferDynamic = true
	case word == "must-compile-successfully":
		p.MustCompileSuccessfully = true
	case word == "run-pass":
		p.RunPass = true
	case word == "pretty-expanded":
		p.PrettyExpanded = true
	case word == "ignore-test":
		p.Ignores = append(p.Ignores, Ignore{What: "test", Reason: rest})
	case strings.HasPrefix(word, "ignore-"):
		p.Ignores = append(p.Ignores, Ignore{What: word[len("ignore-"):], Reason: rest})
	case strings.HasPrefix(word, "only-"):
		p.Onlys = append(p.Onlys, word[len("only-"):])
	}
	return nil
}

// Ignored reports whether the fixture should be skipped for the given
// target, along with the reason.
func (p *Props) Ignored(cfg TargetConfig) (bool, string) {
	for _, ig := range p.Ignores {
		if ig.What == "test" || cfg.matches(ig.What) {
			reason := ig.Reason
			if reason == "" {
				reason = "ignore-" + ig.What
			}
			return true, reason
		}
	}
	if len(p.Onlys) > 0 {
		for _, o := range p.Onlys {
			if cfg.matches(o) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("only-%s", strings.Join(p.Onlys, ", only-"))
	}
	return false, ""
}

func (cfg TargetConfig) matches(what string) bool {
	switch what {
	case cfg.OS, cfg.Arch:
		return true
	case "stage" + cfg.Stage:
		return cfg.Stage != ""
	}
	return false
}

// ForRevision returns the effective properties for one revision: the base
// directives with the revision-scoped ones appended. The result shares no
// slices with p.
func (p *Props) ForRevision(rev string) *Props {
	out := &Props{
		AuxBuilds:               append([]string(nil), p.AuxBuilds...),
		CompileFlags:            append([]string(nil), p.CompileFlags...),
		RunFlags:                append([]string(nil), p.RunFlags...),
		ExecEnv:                 append([]EnvVar(nil), p.ExecEnv...),
		ErrorPatterns:           append([]string(nil), p.ErrorPatterns...),
		Revisions:               append([]string(nil), p.Revisions...),
		Edition:                 p.Edition,
		Ignores:                 append([]Ignore(nil), p.Ignores...),
		Onlys:                   append([]string(nil), p.Onlys...),
		ForceHost:               p.ForceHost,
		NoPreferDynamic:         p.NoPreferDynamic,
		MustCompileSuccessfully: p.MustCompileSuccessfully,
		RunPass:                 p.RunPass,
		PrettyExpanded:          p.PrettyExpanded,
	}
	r, ok := p.byRevision[rev]
	if rev == "" || !ok {
		return out
	}
	out.AuxBuilds = append(out.AuxBuilds, r.AuxBuilds...)
	out.CompileFlags = append(out.CompileFlags, r.CompileFlags...)
	out.RunFlags = append(out.RunFlags, r.RunFlags...)
	out.ExecEnv = append(out.ExecEnv, r.ExecEnv...)
	for _, pat := range r.ErrorPatterns {
		if !contains(out.ErrorPatterns, pat) {
			out.ErrorPatterns = append(out.ErrorPatterns, pat)
		}
	}
	out.Ignores = append(out.Ignores, r.Ignores...)
	out.Onlys = append(out.Onlys, r.Onlys...)
	out.ForceHost = out.ForceHost || r.ForceHost
	out.NoPreferDynamic = out.NoPreferDynamic || r.NoPreferDynamic
	out.MustCompileSuccessfully = out.MustCompileSuccessfully || r.MustCompileSuccessfully
	out.RunPass = out.RunPass || r.RunPass
	if r.Edition != "" {
		out.Edition = r.Edition
	}
	return out
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
