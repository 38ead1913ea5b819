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

// Package diag models the diagnostics a compiler reports and decodes the
// JSON form emitted with --error-format=json, one object per stderr line.
package diag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/token"
)

// Level is the severity of a diagnostic as the compiler reports it.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelHelp    Level = "help"

	// LevelICE is reported when the compiler itself crashes.
	LevelICE Level = "error: internal compiler error"

	LevelFailureNote Level = "failure-note"
)

// A Diagnostic is a single message with its primary source position.
// Child messages (notes and helps attached to an error) are flattened
// into Diagnostics of their own.
type Diagnostic struct {
	Pos     token.Position
	Level   Level
	Message string

	// Code is the diagnostic code, such as "E0507", if the compiler
	// assigned one.
	Code string

	// Rendered is the human-readable form of the top-level message this
	// diagnostic came from. Children share their parent's rendering.
	Rendered string
}

// The wire form of --error-format=json.
type jsonDiagnostic struct {
	Message  string           `json:"message"`
	Code     *jsonCode        `json:"code"`
	Level    string           `json:"level"`
	Spans    []jsonSpan       `json:"spans"`
	Children []jsonDiagnostic `json:"children"`
	Rendered string           `json:"rendered"`
}

type jsonCode struct {
	Code string `json:"code"`
}

type jsonSpan struct {
	FileName    string `json:"file_name"`
	LineStart   int    `json:"line_start"`
	ColumnStart int    `json:"column_start"`
	IsPrimary   bool   `json:"is_primary"`
}

// ParseJSON decodes the JSON diagnostic stream from stderr. Lines that are
// not JSON objects (linker noise, panic messages) are returned as freeform
// text. The error, if non-nil, describes undecodable JSON lines.
func ParseJSON(stderr []byte) (diags []Diagnostic, freeform string, err error) {
	var (
		errs errors.List
		free bytes.Buffer
	)

	s := bufio.NewScanner(bytes.NewReader(stderr))
	s.Buffer(nil, 16<<20)
	for s.Scan() {
		line := s.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if line[0] != '{' {
			free.Write(line)
			free.WriteByte('\n')
			continue
		}
		var d jsonDiagnostic
		if jerr := json.Unmarshal(line, &d); jerr != nil {
			errs.Add(errors.Wrapf(jerr, token.Position{}, "malformed diagnostic line %q", truncate(string(line), 80)))
			continue
		}
		diags = append(diags, flatten(d)...)
	}
	if serr := s.Err(); serr != nil {
		errs.Add(serr)
	}
	return diags, free.String(), errs.Err()
}

func flatten(d jsonDiagnostic) []Diagnostic {
	top := Diagnostic{
		Pos:      primarySpan(d.Spans),
		Level:    Level(d.Level),
		Message:  d.Message,
		Rendered: d.Rendered,
	}
	if d.Code != nil {
		top.Code = d.Code.Code
	}
	out := []Diagnostic{top}
	for _, c := range d.Children {
		child := Diagnostic{
			Pos:      primarySpan(c.Spans),
			Level:    Level(c.Level),
			Message:  c.Message,
			Rendered: d.Rendered,
		}
		if c.Code != nil {
			child.Code = c.Code.Code
		}
		// A child without a span of its own refers to its parent's.
		if !child.Pos.IsValid() {
			child.Pos = top.Pos
		}
		out = append(out, child)
	}
	return out
}

func primarySpan(spans []jsonSpan) token.Position {
	for _, s := range spans {
		if s.IsPrimary {
			return token.Position{Filename: s.FileName, Line: s.LineStart, Column: s.ColumnStart}
		}
	}
	if len(spans) > 0 {
		s := spans[0]
		return token.Position{Filename: s.FileName, Line: s.LineStart, Column: s.ColumnStart}
	}
	return token.Position{}
}

// Rendered concatenates the rendered form of all top-level diagnostics,
// which reconstructs what the compiler would have printed without JSON.
func Rendered(diags []Diagnostic) string {
	var b strings.Builder
	seen := ""
	for _, d := range diags {
		if d.Rendered == "" || d.Rendered == seen {
			continue
		}
		seen = d.Rendered
		b.WriteString(d.Rendered)
		if !strings.HasSuffix(d.Rendered, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
