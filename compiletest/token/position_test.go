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

package token

import (
	"testing"

	"github.com/go-quicktest/qt"
)

var positionStringTests = []struct {
	pos  Position
	want string
}{
	{Position{}, "-"},
	{Position{Filename: "a.rs"}, "a.rs"},
	{Position{Filename: "a.rs", Line: 3, Column: 7}, "a.rs:3:7"},
	{Position{Filename: "a.rs", Line: 3}, "a.rs:3"},
	{Position{Line: 3, Column: 7}, "3:7"},
}

func TestPositionString(t *testing.T) {
	for _, tc := range positionStringTests {
		qt.Check(t, qt.Equals(tc.pos.String(), tc.want))
	}
}

func TestBefore(t *testing.T) {
	a := Position{Filename: "a.rs", Line: 3, Column: 7}
	b := Position{Filename: "a.rs", Line: 4, Column: 1}
	c := Position{Filename: "b.rs", Line: 1, Column: 1}

	qt.Check(t, qt.IsTrue(a.Before(b)))
	qt.Check(t, qt.IsTrue(b.Before(c)))
	qt.Check(t, qt.IsFalse(b.Before(a)))
	qt.Check(t, qt.IsFalse(a.Before(a)))
}
