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

// Package expect parses the expected-diagnostic annotations embedded in
// fixture files.
//
// An annotation is a comment of the form
//
//	//~ ERROR mismatched types
//	//~^ WARNING unused variable      (one line up per '^')
//	//~| NOTE defined here            (same line as the previous annotation)
//	//[rev]~ ERROR only in revision rev
//
// The text after the level word is matched as a substring of the
// diagnostic message. A trailing bracketed code such as [E0507] is
// matched against the diagnostic code instead.
package expect

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/token"
)

// Kind is the level a fixture expects a diagnostic to have.
type Kind int

const (
	Error Kind = 1 + iota
	Warning
	Note
	Help
	Suggestion
)

var kindNames = map[string]Kind{
	"ERROR":      Error,
	"WARNING":    Warning,
	"WARN":       Warning,
	"NOTE":       Note,
	"HELP":       Help,
	"SUGGESTION": Suggestion,
}

func (k Kind) String() string {
	switch k {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Note:
		return "NOTE"
	case Help:
		return "HELP"
	case Suggestion:
		return "SUGGESTION"
	}
	return "UNKNOWN"
}

// An Expectation records a single expected diagnostic.
type Expectation struct {
	// Pos is the position of the annotation itself.
	Pos token.Position

	// Line is the source line the diagnostic must be reported on.
	Line int

	Kind Kind

	// Code is the expected diagnostic code, such as "E0507", if the
	// annotation ends in a bracketed code.
	Code string

	// Pattern is matched as a substring of the diagnostic message.
	// It may be empty, in which case any message matches.
	Pattern string

	// Revision restricts the expectation to a single revision of a
	// revisioned test. Empty means all revisions.
	Revision string
}

// marker matches "//~", "//[rev]~", with optional carets or a bar. The
// bar alternative must come first: alternation is leftmost-first and
// `\^*` matches the empty string, which would leave the bar in the
// message text.
var marker = regexp.MustCompile(`//(?:\[([^\]]+)\])?~(\||\^*)\s?(.*)$`)

var codeSuffix = regexp.MustCompile(`\s*\[([A-Z]+[0-9]+)\]$`)

// Parse scans src for expected-diagnostic annotations and returns them in
// file order. The returned error, if non-nil, is an errors.List describing
// every malformed annotation found.
func Parse(filename string, src []byte) ([]Expectation, error) {
	var (
		exps []Expectation
		errs errors.List
	)

	s := bufio.NewScanner(bytes.NewReader(src))
	s.Buffer(nil, 1<<20)
	lineno := 0
	for s.Scan() {
		lineno++
		line := s.Text()
		i := strings.Index(line, "//")
		if i < 0 {
			continue
		}
		m := marker.FindStringSubmatchIndex(line[i:])
		if m == nil {
			continue
		}
		pos := token.Position{Filename: filename, Line: lineno, Column: i + m[0] + 1}

		group := func(n int) string {
			lo, hi := m[2*n], m[2*n+1]
			if lo < 0 {
				return ""
			}
			return line[i+lo : i+hi]
		}

		rev := group(1)
		adjust := group(2)
		rest := strings.TrimSpace(group(3))

		e := Expectation{Pos: pos, Revision: rev}

		switch {
		case adjust == "|":
			if len(exps) == 0 {
				errs.AddNew(pos, "'|' annotation without a preceding annotation")
				continue
			}
			e.Line = exps[len(exps)-1].Line
		default:
			e.Line = lineno - len(adjust)
			if e.Line < 1 {
				errs.AddNewf(pos, "annotation points %d line(s) above the start of the file", len(adjust))
				continue
			}
		}

		kindWord, pattern, _ := strings.Cut(rest, " ")
		if k, ok := kindNames[kindWord]; ok {
			e.Kind = k
			e.Pattern = strings.TrimSpace(pattern)
		} else if kindWord != "" && kindWord == strings.ToUpper(kindWord) && isWordLike(kindWord) {
			errs.AddNewf(pos, "unknown annotation level %q", kindWord)
			continue
		} else {
			// A bare annotation continues the previous one's level:
			//	//~| cyclic reference
			if len(exps) == 0 {
				errs.AddNew(pos, "annotation without a level and no preceding annotation")
				continue
			}
			e.Kind = exps[len(exps)-1].Kind
			e.Pattern = rest
		}

		if cm := codeSuffix.FindStringSubmatch(e.Pattern); cm != nil {
			e.Code = cm[1]
			e.Pattern = strings.TrimSpace(codeSuffix.ReplaceAllString(e.Pattern, ""))
		}

		exps = append(exps, e)
	}
	if err := s.Err(); err != nil {
		errs.Add(errors.Wrapf(err, token.Position{Filename: filename}, "reading fixture"))
	}
	return exps, errs.Err()
}

// isWordLike reports whether s consists only of letters, so that an
// all-caps first word like "ERRO" is diagnosed as a typo while ordinary
// message text starting the annotation is not.
func isWordLike(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return len(s) > 1
}

// ForRevision returns the subset of exps that applies to the given
// revision, which includes every unrevisioned expectation. rev may be
// empty to select only unrevisioned expectations.
func ForRevision(exps []Expectation, rev string) []Expectation {
	var out []Expectation
	for _, e := range exps {
		if e.Revision == "" || e.Revision == rev {
			out = append(out, e)
		}
	}
	return out
}
