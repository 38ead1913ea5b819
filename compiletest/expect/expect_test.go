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

package expect

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestParse(t *testing.T) {
	src := `fn main() {
    let z: i32 = x; //~ ERROR mismatched types
    return *x //~ ERROR cannot move out of borrowed content [E0507]
    foo::<isize>();
    //~^ ERROR parenthesized parameters may only be used with a trait
    //~| ERROR wrong number of type arguments: expected 1, found 0
    bar();
    //~^^^^ WARN unused result
    baz();
    //~| cyclic reference
}
`
	exps, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(exps, 6))

	qt.Check(t, qt.Equals(exps[0].Line, 2))
	qt.Check(t, qt.Equals(exps[0].Kind, Error))
	qt.Check(t, qt.Equals(exps[0].Pattern, "mismatched types"))
	qt.Check(t, qt.Equals(exps[0].Code, ""))
	qt.Check(t, qt.Equals(exps[0].Pos.Line, 2))

	qt.Check(t, qt.Equals(exps[1].Line, 3))
	qt.Check(t, qt.Equals(exps[1].Code, "E0507"))
	qt.Check(t, qt.Equals(exps[1].Pattern, "cannot move out of borrowed content"))

	// One caret points one line up.
	qt.Check(t, qt.Equals(exps[2].Line, 4))

	// A bar reuses the previous expectation's line.
	qt.Check(t, qt.Equals(exps[3].Line, 4))
	qt.Check(t, qt.Equals(exps[3].Pattern, "wrong number of type arguments: expected 1, found 0"))

	// Four carets on line 8 point at line 4.
	qt.Check(t, qt.Equals(exps[4].Line, 4))
	qt.Check(t, qt.Equals(exps[4].Kind, Warning))

	// A bare continuation inherits the previous kind and line.
	qt.Check(t, qt.Equals(exps[5].Kind, Warning))
	qt.Check(t, qt.Equals(exps[5].Pattern, "cyclic reference"))
	qt.Check(t, qt.Equals(exps[5].Line, 4))
}

func TestParseBar(t *testing.T) {
	src := `fn main() {
    let z: i32 = x; //~ ERROR mismatched types
    //~| NOTE expected i32
    //[cfail2]~| ERROR cannot find value
}
`
	exps, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(exps, 3))

	// The bar must not leak into the pattern, and both bar forms reuse
	// the previous expectation's line.
	qt.Check(t, qt.Equals(exps[1].Line, 2))
	qt.Check(t, qt.Equals(exps[1].Kind, Note))
	qt.Check(t, qt.Equals(exps[1].Pattern, "expected i32"))

	qt.Check(t, qt.Equals(exps[2].Line, 2))
	qt.Check(t, qt.Equals(exps[2].Revision, "cfail2"))
	qt.Check(t, qt.Equals(exps[2].Pattern, "cannot find value"))
}

func TestParseRevisions(t *testing.T) {
	src := strings.Join([]string{
		`fn f() {`,
		`    g(); //[rpass2]~ ERROR not found`,
		`    h(); //~ ERROR always`,
		`}`,
	}, "\n")

	exps, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(exps, 2))
	qt.Check(t, qt.Equals(exps[0].Revision, "rpass2"))
	qt.Check(t, qt.Equals(exps[1].Revision, ""))

	qt.Check(t, qt.HasLen(ForRevision(exps, "rpass2"), 2))
	qt.Check(t, qt.HasLen(ForRevision(exps, "rpass1"), 1))
	qt.Check(t, qt.HasLen(ForRevision(exps, ""), 1))
}

var parseErrorTests = []struct {
	name string
	src  string
	want string
}{{
	name: "bar without predecessor",
	src:  `x //~| ERROR nope`,
	want: "'|' annotation without a preceding annotation",
}, {
	name: "caret above file start",
	src:  `//~^^ ERROR nope`,
	want: "annotation points 2 line(s) above the start of the file",
}, {
	name: "unknown level",
	src:  `x //~ ERRO mismatched types`,
	want: `unknown annotation level "ERRO"`,
}, {
	name: "leading bare annotation",
	src:  `x //~ `,
	want: "annotation without a level and no preceding annotation",
}}

func TestParseErrors(t *testing.T) {
	for _, tc := range parseErrorTests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("test.rs", []byte(tc.src))
			qt.Assert(t, qt.IsNotNil(err))
			qt.Assert(t, qt.StringContains(err.Error(), tc.want))
		})
	}
}

func TestParseIgnoresOrdinaryComments(t *testing.T) {
	src := `// just a comment
// aux-build:other.rs
fn main() {} // trailing note
`
	exps, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(exps, 0))
}
