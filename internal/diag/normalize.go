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

package diag

import (
	"path/filepath"
	"strings"
)

// Normalize rewrites compiler output so it compares stably across
// machines and operating systems: the test's directory becomes $DIR,
// backslash path separators become slashes, and trailing whitespace is
// trimmed per line. The result always ends in a newline unless empty.
func Normalize(output, dir string) string {
	if dir != "" {
		output = strings.ReplaceAll(output, dir, "$DIR")
		if sl := filepath.ToSlash(dir); sl != dir {
			output = strings.ReplaceAll(output, sl, "$DIR")
		}
	}
	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.ReplaceAll(output, "\\", "/")

	lines := strings.Split(output, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := strings.Join(lines, "\n")
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
