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

// Package harnesstest is a helper package for test packages in this
// project. As such it should only be imported in _test.go files.
package harnesstest

import (
	"fmt"
	"os"
)

// UpdateGoldenFiles determines whether tests should rewrite golden data
// in txtar fixtures and testscript archives when output differs. It
// corresponds to testscript.Params.UpdateScripts.
var UpdateGoldenFiles = os.Getenv("COMPILETEST_UPDATE") != ""

// Long reports whether tests marked as long-running should run.
var Long = os.Getenv("COMPILETEST_LONG") != ""

// Condition adds project-specific testscript conditions, the canonical
// case being [long].
func Condition(cond string) (bool, error) {
	switch cond {
	case "long":
		return Long, nil
	}
	return false, fmt.Errorf("unknown condition %v", cond)
}
