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

package cmd

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"compiletest.org/go/compiletest/header"
	"compiletest.org/go/compiletest/suite"
)

const defaultConfigFile = "compiletest.yaml"

// config is the file form of the harness configuration.
type config struct {
	Rustc   string `yaml:"rustc"`
	Rustdoc string `yaml:"rustdoc"`

	// Suites maps a mode name to its fixture root directory.
	Suites map[string]string `yaml:"suites"`

	Target struct {
		OS    string `yaml:"os"`
		Arch  string `yaml:"arch"`
		Stage string `yaml:"stage"`
	} `yaml:"target"`

	Jobs int `yaml:"jobs"`
}

// debugFlags are the knobs of the COMPILETEST environment variable, e.g.
// COMPILETEST=keepscratch,verbose.
type debugFlags struct {
	KeepScratch bool
	Verbose     bool
}

// loadConfig reads the config file. A missing default file is not an
// error; a missing explicitly named file is.
func loadConfig(cmd *Command) (*config, error) {
	path := flagConfig.String(cmd)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg := &config{}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return cfg, nil
}

// compiler resolves the compiler path from flag, config file and $RUSTC,
// in that order.
func (cfg *config) compiler(cmd *Command) string {
	if p := flagRustc.String(cmd); p != "" {
		return p
	}
	if cfg.Rustc != "" {
		return cfg.Rustc
	}
	return os.Getenv("RUSTC")
}

func (cfg *config) rustdoc(cmd *Command) string {
	if p := flagRustdoc.String(cmd); p != "" {
		return p
	}
	if cfg.Rustdoc != "" {
		return cfg.Rustdoc
	}
	return os.Getenv("RUSTDOC")
}

// target resolves the platform description. The --target flag takes a
// triple like x86_64-unknown-linux-gnu; unset, the host values apply.
func (cfg *config) target(cmd *Command) header.TargetConfig {
	t := header.TargetConfig{
		OS:    cfg.Target.OS,
		Arch:  cfg.Target.Arch,
		Stage: cfg.Target.Stage,
	}
	if triple := flagTarget.String(cmd); triple != "" {
		parts := strings.Split(triple, "-")
		t.Arch = parts[0]
		t.OS = parts[len(parts)-1]
		for _, p := range parts[1:] {
			switch p {
			case "linux", "windows", "darwin", "android", "freebsd", "emscripten":
				t.OS = p
			}
		}
	}
	if t.OS == "" {
		t.OS = runtime.GOOS
	}
	if t.Arch == "" {
		t.Arch = runtime.GOARCH
	}
	return t
}

// A suiteSpec names one suite to process: a mode plus its root.
type suiteSpec struct {
	mode suite.Mode
	root string
}

// selectSuites interprets the --suite flags against the configured
// suites. Each value is either a bare mode, whose root must then come
// from the config file, or mode=root. Without --suite flags every
// configured suite is selected, in stable mode order.
func (cfg *config) selectSuites(cmd *Command) ([]suiteSpec, error) {
	var specs []suiteSpec

	if flags := flagSuite.StringArray(cmd); len(flags) > 0 {
		for _, f := range flags {
			name, root, hasRoot := strings.Cut(f, "=")
			mode, err := suite.ParseMode(name)
			if err != nil {
				return nil, err
			}
			if !hasRoot {
				root = cfg.Suites[name]
				if root == "" {
					return nil, fmt.Errorf("suite %s has no configured root; use --suite %s=<dir>", name, name)
				}
			}
			specs = append(specs, suiteSpec{mode: mode, root: root})
		}
		return specs, nil
	}

	names := make([]string, 0, len(cfg.Suites))
	for name := range cfg.Suites {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mode, err := suite.ParseMode(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, suiteSpec{mode: mode, root: cfg.Suites[name]})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no suites configured; add a suites section to %s or pass --suite mode=<dir>", defaultConfigFile)
	}
	return specs, nil
}
