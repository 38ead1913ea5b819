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

package docck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestParse(t *testing.T) {
	src := `// compile-flags: -Z force-unstable-if-unmarked

// @matches internal/index.html \
//      '^\[Internal\] Docs'
// @has internal/struct.S.html 'This is an internal compiler API.'
// @!has internal/struct.Hidden.html
// @count internal/index.html 'Docs' 1
/// Docs
pub struct S;
`
	cmds, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(cmds, 4))

	qt.Check(t, qt.Equals(cmds[0].Name, "matches"))
	qt.Check(t, qt.DeepEquals(cmds[0].Args, []string{"internal/index.html", `^\[Internal\] Docs`}))

	qt.Check(t, qt.Equals(cmds[1].Name, "has"))
	qt.Check(t, qt.IsFalse(cmds[1].Negated))

	qt.Check(t, qt.Equals(cmds[2].Name, "has"))
	qt.Check(t, qt.IsTrue(cmds[2].Negated))
	qt.Check(t, qt.DeepEquals(cmds[2].Args, []string{"internal/struct.Hidden.html"}))

	qt.Check(t, qt.Equals(cmds[3].Name, "count"))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "internal")
	qt.Assert(t, qt.IsNil(os.MkdirAll(sub, 0o777)))

	html := `<html><body><p class="docblock">[Internal] Docs</p></body></html>`
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(sub, "index.html"), []byte(html), 0o666)))

	src := `// @has internal/index.html '[Internal] Docs'
// @has internal/index.html
// @!has internal/nope.html
// @matches internal/index.html 'Internal.*Docs'
// @count internal/index.html 'Docs' 1
`
	cmds, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(Check(dir, cmds)))
}

func TestCheckFailures(t *testing.T) {
	dir := t.TempDir()
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, "a.html"), []byte("<p>text</p>"), 0o666)))

	src := `// @has a.html 'absent words'
// @!has a.html
// @count a.html 'text' 2
`
	cmds, err := Parse("test.rs", []byte(src))
	qt.Assert(t, qt.IsNil(err))

	err = Check(dir, cmds)
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.StringContains(err.Error(), "@has a.html absent words failed"))
}
