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

// Package token defines source positions for fixture files and
// compiler diagnostics.
package token

import "fmt"

// Position describes an arbitrary and printable source position within a
// fixture file, including line and column location.
//
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string // filename, if any
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a human-readable form of a position in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		if pos.Column > 0 {
			s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
		} else {
			s += fmt.Sprintf("%d", pos.Line)
		}
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Before reports whether pos sorts before q, ordering by filename,
// then line, then column.
func (pos Position) Before(q Position) bool {
	if pos.Filename != q.Filename {
		return pos.Filename < q.Filename
	}
	if pos.Line != q.Line {
		return pos.Line < q.Line
	}
	return pos.Column < q.Column
}
