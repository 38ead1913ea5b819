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

package match

import (
	"testing"

	"github.com/go-quicktest/qt"

	"compiletest.org/go/compiletest/expect"
	"compiletest.org/go/compiletest/token"
	"compiletest.org/go/internal/diag"
)

func exp(line int, k expect.Kind, pattern, code string) expect.Expectation {
	return expect.Expectation{
		Pos:     token.Position{Filename: "test.rs", Line: line, Column: 1},
		Line:    line,
		Kind:    k,
		Pattern: pattern,
		Code:    code,
	}
}

func d(line int, level diag.Level, msg, code string) diag.Diagnostic {
	return diag.Diagnostic{
		Pos:     token.Position{Filename: "test.rs", Line: line, Column: 5},
		Level:   level,
		Message: msg,
		Code:    code,
	}
}

func TestDiagnosticsAllMatched(t *testing.T) {
	err := Diagnostics(
		[]expect.Expectation{
			exp(2, expect.Error, "mismatched types", ""),
			exp(4, expect.Warning, "unused variable", ""),
		},
		[]diag.Diagnostic{
			d(2, diag.LevelError, "mismatched types: expected i32", ""),
			d(4, diag.LevelWarning, "unused variable: `x`", ""),
		},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNil(err))
}

func TestDiagnosticsUnmetExpectation(t *testing.T) {
	err := Diagnostics(
		[]expect.Expectation{exp(2, expect.Error, "mismatched types", "")},
		nil,
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(),
		"expected ERROR on line 2 not reported: mismatched types"))
}

func TestDiagnosticsUnexpectedError(t *testing.T) {
	err := Diagnostics(
		nil,
		[]diag.Diagnostic{d(7, diag.LevelError, "borrow of moved value", "")},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(), "unexpected error: borrow of moved value"))
}

func TestDiagnosticsWarningPolicy(t *testing.T) {
	diags := []diag.Diagnostic{d(7, diag.LevelWarning, "unused import", "")}

	err := Diagnostics(nil, diags, Options{File: "test.rs", AllowUnmatchedWarnings: true})
	qt.Check(t, qt.IsNil(err))

	err = Diagnostics(nil, diags, Options{File: "test.rs"})
	qt.Check(t, qt.IsNotNil(err))
}

func TestDiagnosticsStrayNotesIgnored(t *testing.T) {
	err := Diagnostics(
		[]expect.Expectation{exp(2, expect.Error, "mismatched types", "")},
		[]diag.Diagnostic{
			d(2, diag.LevelError, "mismatched types", ""),
			d(2, diag.LevelNote, "expected i32, found struct", ""),
			d(2, diag.LevelHelp, "try removing the borrow", ""),
		},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNil(err))
}

func TestDiagnosticsCode(t *testing.T) {
	// A code-carrying expectation requires the same code.
	err := Diagnostics(
		[]expect.Expectation{exp(2, expect.Error, "cannot move", "E0507")},
		[]diag.Diagnostic{d(2, diag.LevelError, "cannot move out of borrowed content", "E0505")},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNotNil(err))

	err = Diagnostics(
		[]expect.Expectation{exp(2, expect.Error, "cannot move", "E0507")},
		[]diag.Diagnostic{d(2, diag.LevelError, "cannot move out of borrowed content", "E0507")},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNil(err))
}

func TestDiagnosticsOneToOne(t *testing.T) {
	// Two identical expectations need two diagnostics.
	exps := []expect.Expectation{
		exp(2, expect.Error, "mismatched types", ""),
		exp(2, expect.Error, "mismatched types", ""),
	}
	err := Diagnostics(exps,
		[]diag.Diagnostic{d(2, diag.LevelError, "mismatched types", "")},
		Options{File: "test.rs"})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestDiagnosticsOtherFile(t *testing.T) {
	// A diagnostic in another file never satisfies an expectation here.
	other := diag.Diagnostic{
		Pos:     token.Position{Filename: "aux/other.rs", Line: 2, Column: 1},
		Level:   diag.LevelError,
		Message: "mismatched types",
	}
	err := Diagnostics(
		[]expect.Expectation{exp(2, expect.Error, "mismatched types", "")},
		[]diag.Diagnostic{other},
		Options{File: "test.rs"},
	)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestPatterns(t *testing.T) {
	out := "error: expected one of `,` or `}`\n"
	qt.Check(t, qt.IsNil(Patterns([]string{"expected one of"}, out)))

	err := Patterns([]string{"expected one of", "not present"}, out)
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(), `error pattern "not present" not found`))
}
