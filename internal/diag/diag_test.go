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

package diag

import (
	"testing"

	"github.com/go-quicktest/qt"
)

const sampleStderr = `{"message":"mismatched types","code":{"code":"E0308","explanation":null},"level":"error","spans":[{"file_name":"test.rs","line_start":16,"column_start":18,"is_primary":true}],"children":[{"message":"expected i32, found struct","code":null,"level":"note","spans":[]}],"rendered":"error[E0308]: mismatched types\n"}
{"message":"unused variable: x","code":null,"level":"warning","spans":[{"file_name":"test.rs","line_start":3,"column_start":9,"is_primary":true}],"children":[],"rendered":"warning: unused variable\n"}
error: aborting due to previous error
`

func TestParseJSON(t *testing.T) {
	diags, freeform, err := ParseJSON([]byte(sampleStderr))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(diags, 3))

	qt.Check(t, qt.Equals(diags[0].Level, LevelError))
	qt.Check(t, qt.Equals(diags[0].Message, "mismatched types"))
	qt.Check(t, qt.Equals(diags[0].Code, "E0308"))
	qt.Check(t, qt.Equals(diags[0].Pos.Filename, "test.rs"))
	qt.Check(t, qt.Equals(diags[0].Pos.Line, 16))
	qt.Check(t, qt.Equals(diags[0].Pos.Column, 18))

	// The child note has no span of its own and inherits its parent's.
	qt.Check(t, qt.Equals(diags[1].Level, LevelNote))
	qt.Check(t, qt.Equals(diags[1].Pos.Line, 16))
	qt.Check(t, qt.Equals(diags[1].Rendered, "error[E0308]: mismatched types\n"))

	qt.Check(t, qt.Equals(diags[2].Level, LevelWarning))
	qt.Check(t, qt.Equals(diags[2].Pos.Line, 3))

	qt.Check(t, qt.Equals(freeform, "error: aborting due to previous error\n"))
}

func TestParseJSONMalformed(t *testing.T) {
	_, _, err := ParseJSON([]byte(`{"message":`))
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(), "malformed diagnostic line"))
}

func TestRendered(t *testing.T) {
	diags, _, err := ParseJSON([]byte(sampleStderr))
	qt.Assert(t, qt.IsNil(err))
	want := "error[E0308]: mismatched types\nwarning: unused variable\n"
	qt.Assert(t, qt.Equals(Rendered(diags), want))
}

var normalizeTests = []struct {
	name string
	in   string
	dir  string
	want string
}{{
	name: "dir replacement",
	in:   "error at /suite/ui/test.rs:1:1\n",
	dir:  "/suite/ui",
	want: "error at $DIR/test.rs:1:1\n",
}, {
	name: "trailing space trimmed",
	in:   "error: x   \n  note: y\t\n",
	want: "error: x\n  note: y\n",
}, {
	name: "crlf",
	in:   "a\r\nb\r\n",
	want: "a\nb\n",
}, {
	name: "empty",
	in:   "",
	want: "",
}, {
	name: "final newline added",
	in:   "a",
	want: "a\n",
}}

func TestNormalize(t *testing.T) {
	for _, tc := range normalizeTests {
		t.Run(tc.name, func(t *testing.T) {
			qt.Assert(t, qt.Equals(Normalize(tc.in, tc.dir), tc.want))
		})
	}
}
