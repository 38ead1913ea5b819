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

package envflag

import (
	"testing"

	"github.com/go-quicktest/qt"
)

type testFlags struct {
	KeepScratch bool
	Verbose     bool
	Jobs        int
	Logfile     string
	Color       bool `envflag:"default:true"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		want    testFlags
		wantErr string
	}{{
		name: "Empty",
		env:  "",
		want: testFlags{Color: true},
	}, {
		name: "BareBoolIsTrue",
		env:  "keepscratch",
		want: testFlags{KeepScratch: true, Color: true},
	}, {
		name: "MultipleFlags",
		env:  "keepscratch,verbose=true,jobs=4,logfile=run.log",
		want: testFlags{KeepScratch: true, Verbose: true, Jobs: 4, Logfile: "run.log", Color: true},
	}, {
		name: "CaseInsensitiveNames",
		env:  "KeepScratch=1",
		want: testFlags{KeepScratch: true, Color: true},
	}, {
		name: "DefaultOverridden",
		env:  "color=false",
		want: testFlags{},
	}, {
		name: "EmptyElementsAllowed",
		env:  ",verbose,",
		want: testFlags{Verbose: true, Color: true},
	}, {
		name:    "UnknownFlag",
		env:     "nosuchflag",
		want:    testFlags{Color: true},
		wantErr: `unknown flag "nosuchflag"`,
	}, {
		name:    "NonBoolNeedsValue",
		env:     "jobs",
		want:    testFlags{Color: true},
		wantErr: `value needed for int flag "jobs"`,
	}, {
		name:    "BadIntValue",
		env:     "jobs=many",
		want:    testFlags{Color: true},
		wantErr: `invalid int value for jobs.*`,
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var flags testFlags
			err := Parse(&flags, tc.env)
			if tc.wantErr != "" {
				qt.Assert(t, qt.ErrorMatches(err, tc.wantErr))
			} else {
				qt.Assert(t, qt.IsNil(err))
			}
			qt.Assert(t, qt.Equals(flags, tc.want))
		})
	}
}

func TestParseInvalidIs(t *testing.T) {
	var flags testFlags
	err := Parse(&flags, "jobs=many")
	qt.Assert(t, qt.ErrorIs(err, ErrInvalid))
}
