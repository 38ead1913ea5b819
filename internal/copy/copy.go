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

// Package copy provides utilities to copy files, used to stage auxiliary
// sources into scratch build directories.
package copy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File creates dst and copies the contents of src to it, preserving the
// source's permission bits.
func File(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	stat, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy file: %v", err)
	}
	err = copyFile(stat, src, dst)
	if err != nil {
		return fmt.Errorf("copy file: %v", err)
	}
	return nil
}

func copyFile(info os.FileInfo, src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("error creating %s: %v", dst, err)
	}
	defer func() {
		cErr := out.Close()
		if err == nil {
			err = cErr
		}
	}()

	_, err = io.Copy(out, in)
	if err != nil {
		return fmt.Errorf("error copying %s: %v", dst, err)
	}
	return err
}
