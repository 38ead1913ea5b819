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

// Package docck checks generated documentation against the @-commands a
// rustdoc fixture declares:
//
//	// @has internal/struct.S.html 'This is an internal compiler API.'
//	// @!has foo/type.NoSuch.html
//	// @matches internal/index.html '^\[Internal\] Docs'
//	// @count internal/index.html 'docblock' 2
//
// A command line may continue onto the next comment line with a trailing
// backslash. @has with a single argument checks file existence; with a
// pattern it checks for a whitespace-normalized substring; @matches
// applies a regular expression. A third, XPath-style argument from the
// original convention is accepted, in which case the pattern is matched
// against the tag-stripped text of the file.
package docck

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/token"
)

// A Command is one parsed @-command.
type Command struct {
	Pos     token.Position
	Name    string // "has", "matches" or "count"
	Negated bool
	Args    []string
}

var commandLine = regexp.MustCompile(`//\s*@(!?)([a-z]+)(.*)$`)

// Parse extracts the @-commands of a rustdoc fixture.
func Parse(filename string, src []byte) ([]Command, error) {
	var (
		cmds []Command
		errs errors.List
	)

	s := bufio.NewScanner(bytes.NewReader(src))
	s.Buffer(nil, 1<<20)
	lineno := 0
	for s.Scan() {
		lineno++
		m := commandLine.FindStringSubmatch(s.Text())
		if m == nil {
			continue
		}
		pos := token.Position{Filename: filename, Line: lineno, Column: 1}
		name := m[2]
		switch name {
		case "has", "matches", "count":
		default:
			// Not every @word in a comment is a command.
			continue
		}

		args := strings.TrimSpace(m[3])
		for strings.HasSuffix(args, "\\") && s.Scan() {
			lineno++
			cont := strings.TrimSpace(s.Text())
			cont = strings.TrimPrefix(cont, "//")
			args = strings.TrimSuffix(args, "\\") + " " + strings.TrimSpace(cont)
		}

		split, err := shlex.Split(args)
		if err != nil {
			errs.Add(errors.Wrapf(err, pos, "@%s arguments", name))
			continue
		}
		if len(split) == 0 {
			errs.AddNewf(pos, "@%s requires a path argument", name)
			continue
		}
		cmds = append(cmds, Command{Pos: pos, Name: name, Negated: m[1] == "!", Args: split})
	}
	if err := s.Err(); err != nil {
		errs.Add(err)
	}
	return cmds, errs.Err()
}

// Check evaluates cmds against the documentation tree rooted at outDir.
func Check(outDir string, cmds []Command) error {
	var errs errors.List
	cache := map[string]string{}

	for _, c := range cmds {
		ok, err := eval(outDir, c, cache)
		if err != nil {
			errs.Add(errors.Wrapf(err, c.Pos, "@%s", c.Name))
			continue
		}
		if ok == c.Negated {
			neg := ""
			if c.Negated {
				neg = "!"
			}
			errs.AddNewf(c.Pos, "@%s%s %s failed", neg, c.Name, strings.Join(c.Args, " "))
		}
	}
	return errs.Err()
}

func eval(outDir string, c Command, cache map[string]string) (bool, error) {
	path := filepath.Join(outDir, filepath.FromSlash(c.Args[0]))

	read := func() (string, bool, error) {
		if s, ok := cache[path]; ok {
			return s, true, nil
		}
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		cache[path] = string(b)
		return string(b), true, nil
	}

	switch c.Name {
	case "has":
		content, exists, err := read()
		if err != nil {
			return false, err
		}
		switch len(c.Args) {
		case 1:
			return exists, nil
		case 2:
			return exists && strings.Contains(normalize(content), normalize(c.Args[1])), nil
		default:
			return exists && strings.Contains(normalize(stripTags(content)), normalize(c.Args[2])), nil
		}

	case "matches":
		content, exists, err := read()
		if err != nil || !exists {
			return false, err
		}
		pat := c.Args[len(c.Args)-1]
		re, err := regexp.Compile(pat)
		if err != nil {
			return false, err
		}
		if len(c.Args) > 2 {
			content = stripTags(content)
		}
		return re.MatchString(normalize(content)), nil

	case "count":
		if len(c.Args) < 3 {
			return false, errors.New("@count requires a path, a pattern and a count")
		}
		content, exists, err := read()
		if err != nil {
			return false, err
		}
		want, err := strconv.Atoi(c.Args[len(c.Args)-1])
		if err != nil {
			return false, err
		}
		if !exists {
			return want == 0, nil
		}
		pat := c.Args[1]
		return strings.Count(normalize(stripTags(content)), normalize(pat)) == want, nil
	}
	return false, nil
}

var (
	tags = regexp.MustCompile(`<[^>]*>`)
	ws   = regexp.MustCompile(`\s+`)
)

func stripTags(s string) string {
	return tags.ReplaceAllString(s, " ")
}

func normalize(s string) string {
	return strings.TrimSpace(ws.ReplaceAllString(s, " "))
}
