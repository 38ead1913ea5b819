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

package suite_test

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"

	"compiletest.org/go/compiletest/header"
	"compiletest.org/go/compiletest/suite"
	"compiletest.org/go/internal/fixtar"
)

func TestLoad(t *testing.T) {
	test := fixtar.Suite{
		Root: "testdata",
		Name: "load",
	}

	test.Run(t, func(tc *fixtar.Test) {
		root := tc.Extract()

		modeStr, ok := tc.Value("mode")
		if !ok {
			modeStr = "ui"
		}
		mode, err := suite.ParseMode(modeStr)
		if err != nil {
			tc.Fatal(err)
		}

		tests, err := suite.Load(mode, root, nil)
		for _, st := range tests {
			fmt.Fprintf(tc, "[%s] %s", st.Mode, st.Name)
			if len(st.Props.Revisions) > 0 {
				fmt.Fprintf(tc, " revisions=%v", st.Props.Revisions)
			}
			if n := len(st.Expectations); n > 0 {
				fmt.Fprintf(tc, " expectations=%d", n)
			}
			fmt.Fprintln(tc)
		}
		tc.WriteErrors(err)
	})
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"compile-fail", "run-pass", "ui", "incremental", "rustdoc"} {
		m, err := suite.ParseMode(s)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(string(m), s))
	}

	_, err := suite.ParseMode("codegen")
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(), `unknown suite mode "codegen"`))
}

func TestRevisions(t *testing.T) {
	st := &suite.Test{Props: parseProps(t, "")}
	qt.Check(t, qt.DeepEquals(st.Revisions(), []string{""}))

	st = &suite.Test{Props: parseProps(t, "// revisions:rpass1 rpass2")}
	qt.Check(t, qt.DeepEquals(st.Revisions(), []string{"rpass1", "rpass2"}))
}

func parseProps(t *testing.T, src string) *header.Props {
	t.Helper()
	p, err := header.Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	return p
}
