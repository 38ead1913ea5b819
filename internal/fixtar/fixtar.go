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

// Package fixtar runs table tests stored as txtar archives. Each archive
// holds a small fixture tree plus golden output files under out/<name>;
// a test extracts the tree, runs the code under test, and compares what
// it wrote against the golden files, updating them when the update knob
// is set.
package fixtar

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rogpeppe/go-internal/txtar"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/internal/harnesstest"
)

// A Suite represents a test run that processes all txtar archives rooted
// in a given directory.
type Suite struct {
	// Run the Suite on this directory.
	Root string

	// Name is a unique name for this test. The golden file for this test
	// is derived from the out/<name> file in the .txtar file.
	Name string

	// If Update is true, Run will update the out/<name> files when they
	// differ from what the test wrote.
	Update bool

	// Skip is a map of tests to skip to their skip message.
	Skip map[string]string

	// ToDo is a map of tests that should be skipped now, but should be
	// fixed.
	ToDo map[string]string
}

// A Test represents a single test based on a .txtar file.
//
// A Test embeds *testing.T and should be used to report errors.
//
// Writing to a Test buffers output that is compared against the golden
// file for the test in the archive. If the output differs and the update
// flag is set, the archive is rewritten on disk.
type Test struct {
	// Allow Test to be used as a T.
	*testing.T

	prefix   string
	buf      *bytes.Buffer // the default buffer
	outFiles []file

	Archive *txtar.Archive

	// The absolute path of the txtar file's directory.
	Dir string
}

type file struct {
	name string
	buf  *bytes.Buffer
}

func (t *Test) Write(b []byte) (n int, err error) {
	if t.buf == nil {
		t.buf = &bytes.Buffer{}
		t.outFiles = append(t.outFiles, file{t.prefix, t.buf})
	}
	return t.buf.Write(b)
}

// HasTag reports whether the archive comment contains a line "#key".
func (t *Test) HasTag(key string) bool {
	prefix := []byte("#" + key)
	s := bufio.NewScanner(bytes.NewReader(t.Archive.Comment))
	for s.Scan() {
		b := s.Bytes()
		if bytes.Equal(bytes.TrimSpace(b), prefix) {
			return true
		}
	}
	return false
}

// Value returns the value of a "#key: value" line in the archive comment.
func (t *Test) Value(key string) (value string, ok bool) {
	prefix := []byte("#" + key + ":")
	s := bufio.NewScanner(bytes.NewReader(t.Archive.Comment))
	for s.Scan() {
		b := s.Bytes()
		if bytes.HasPrefix(b, prefix) {
			return string(bytes.TrimSpace(b[len(prefix):])), true
		}
	}
	return "", false
}

// Bool reports whether a "#key: true" line exists in the archive comment.
func (t *Test) Bool(key string) bool {
	s, ok := t.Value(key)
	return ok && s == "true"
}

// Rel converts filename to a form stable across runs and OSes.
func (t *Test) Rel(filename string) string {
	rel, err := filepath.Rel(t.Dir, filename)
	if err != nil {
		return filepath.Base(filename)
	}
	return filepath.ToSlash(rel)
}

// WriteErrors writes err to the default output buffer, one entry per
// line, with paths relativized against the extraction directory.
func (t *Test) WriteErrors(err error) {
	if err != nil {
		var buf bytes.Buffer
		errors.Print(&buf, err)
		s := buf.String()
		s = strings.ReplaceAll(s, t.Dir+string(filepath.Separator), "")
		s = strings.ReplaceAll(s, "\\", "/")
		io.WriteString(t, s)
	}
}

// Writer returns a Writer with the given name whose contents are compared
// against the archive file out/<suite-name>/<name>.
func (t *Test) Writer(name string) io.Writer {
	switch name {
	case "":
		name = t.prefix
	default:
		name = path.Join(t.prefix, name)
	}

	for _, f := range t.outFiles {
		if f.name == name {
			return f.buf
		}
	}

	w := &bytes.Buffer{}
	t.outFiles = append(t.outFiles, file{name, w})

	if name == t.prefix {
		t.buf = w
	}

	return w
}

// Extract materializes the archive's non-golden files into a fresh
// directory and returns its path. The Test's Dir is updated to point at
// it so that WriteErrors relativizes against the extracted tree.
func (t *Test) Extract() string {
	dir := t.TempDir()
	for _, f := range t.Archive.Files {
		if strings.HasPrefix(f.Name, "out/") {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, f.Data, 0o666); err != nil {
			t.Fatal(err)
		}
	}
	t.Dir = dir
	return dir
}

// Run runs tests defined in txtar files in Root or its subdirectories.
func (x *Suite) Run(t *testing.T, f func(tc *Test)) {
	err := filepath.Walk(x.Root, func(fullpath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(fullpath) != ".txtar" {
			return nil
		}

		str := filepath.ToSlash(fullpath)
		p := strings.Index(str, "/testdata/")
		testName := str[p+len("/testdata/") : len(str)-len(".txtar")]

		t.Run(testName, func(t *testing.T) {
			a, err := txtar.ParseFile(fullpath)
			if err != nil {
				t.Fatalf("error parsing txtar file: %v", err)
			}

			abs, err := filepath.Abs(filepath.Dir(fullpath))
			if err != nil {
				t.Fatal(err)
			}

			tc := &Test{
				T:       t,
				Archive: a,
				Dir:     abs,

				prefix: path.Join("out", x.Name),
			}

			if tc.HasTag("skip") {
				t.Skip()
			}
			if msg, ok := x.Skip[testName]; ok {
				t.Skip(msg)
			}
			if msg, ok := x.ToDo[testName]; ok {
				t.Skip(msg)
			}

			f(tc)

			update := false
			for _, sub := range tc.outFiles {
				var gold *txtar.File
				for i, f := range a.Files {
					if f.Name == sub.name {
						gold = &a.Files[i]
					}
				}

				result := sub.buf.Bytes()

				switch {
				case gold == nil:
					a.Files = append(a.Files, txtar.File{Name: sub.name})
					gold = &a.Files[len(a.Files)-1]

				case bytes.Equal(gold.Data, result):
					continue
				}

				if x.Update || harnesstest.UpdateGoldenFiles {
					update = true
					gold.Data = result
					continue
				}

				t.Errorf("result for %s differs:\n%s",
					sub.name,
					cmp.Diff(string(gold.Data), string(result)))
			}

			if update {
				err = os.WriteFile(fullpath, txtar.Format(a), 0o644)
				if err != nil {
					t.Fatal(err)
				}
			}
		})

		return nil
	})

	if err != nil {
		t.Fatal(err)
	}
}
