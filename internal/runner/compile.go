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

package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"compiletest.org/go/compiletest/header"
	"compiletest.org/go/compiletest/suite"
	"compiletest.org/go/internal/copy"
	"compiletest.org/go/internal/diag"
)

// A proc is the outcome of one subprocess invocation.
type proc struct {
	argv     []string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitErr  error
	timedOut bool
}

func (p *proc) success() bool { return p.exitErr == nil && !p.timedOut }

// describe renders the invocation and its output for failure reports.
func (p *proc) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command: %s\n", strings.Join(p.argv, " "))
	if p.timedOut {
		b.WriteString("status: timed out\n")
	} else if p.exitErr != nil {
		fmt.Fprintf(&b, "status: %v\n", p.exitErr)
	}
	if p.stdout.Len() > 0 {
		fmt.Fprintf(&b, "stdout:\n%s", indent(p.stdout.String()))
	}
	if p.stderr.Len() > 0 {
		fmt.Fprintf(&b, "stderr:\n%s", indent(p.stderr.String()))
	}
	return b.String()
}

func indent(s string) string {
	s = strings.TrimRight(s, "\n")
	return "\t" + strings.ReplaceAll(s, "\n", "\n\t") + "\n"
}

// exec runs argv with the per-invocation timeout.
func (r *Runner) exec(ctx context.Context, dir string, env []header.EnvVar, argv ...string) *proc {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	p := &proc{argv: argv}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr
	if len(env) > 0 {
		cmd.Env = os.Environ()
		for _, e := range env {
			cmd.Env = append(cmd.Env, e.Key+"="+e.Value)
		}
	}

	if r.cfg.Verbose {
		fmt.Fprintf(r.cfg.Stderr, "exec: %s\n", strings.Join(argv, " "))
	}
	p.exitErr = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		p.timedOut = true
	}
	return p
}

// A compilation is the decoded outcome of one compiler invocation.
type compilation struct {
	proc     *proc
	diags    []diag.Diagnostic
	freeform string // non-JSON stderr lines
}

// output is the combined text error-patterns are searched in.
func (c *compilation) output() string {
	return diag.Rendered(c.diags) + c.freeform + c.proc.stdout.String()
}

// compileOpts are the per-invocation extras beyond the fixture's own
// directives.
type compileOpts struct {
	revision string // --cfg value for revisioned tests
	incrDir  string // -C incremental cache dir
	auxLib   string // -L search dir populated by aux builds
	outDir   string
}

// compile runs the compiler on file with the fixture's directives applied.
func (r *Runner) compile(ctx context.Context, file string, props *header.Props, opts compileOpts) (*compilation, error) {
	argv := []string{r.cfg.Compiler, file}

	argv = append(argv, "--out-dir", opts.outDir)
	if props.Edition != "" {
		argv = append(argv, "--edition", props.Edition)
	}
	if opts.auxLib != "" {
		argv = append(argv, "-L", opts.auxLib)
	}
	if opts.revision != "" {
		argv = append(argv, "--cfg", opts.revision)
	}
	if opts.incrDir != "" {
		argv = append(argv, "-C", "incremental="+opts.incrDir)
	}
	argv = append(argv, props.CompileFlags...)
	if !hasErrorFormat(props.CompileFlags) {
		argv = append(argv, "--error-format=json")
	}

	p := r.exec(ctx, filepath.Dir(file), nil, argv...)
	if p.timedOut {
		return nil, fmt.Errorf("compilation timed out:\n%s", p.describe())
	}

	diags, freeform, err := diag.ParseJSON(p.stderr.Bytes())
	if err != nil {
		return nil, fmt.Errorf("undecodable compiler output: %w\n%s", err, p.describe())
	}
	return &compilation{proc: p, diags: diags, freeform: freeform}, nil
}

func hasErrorFormat(flags []string) bool {
	for _, f := range flags {
		if f == "--error-format" || strings.HasPrefix(f, "--error-format=") {
			return true
		}
	}
	return false
}

// buildAux compiles the fixture's aux-build files as libraries into a lib
// dir under scratch and returns it. The auxiliary sources are staged into
// scratch first so builds never write next to the corpus.
func (r *Runner) buildAux(ctx context.Context, t *suite.Test, props *header.Props, scratch string) (string, error) {
	if len(props.AuxBuilds) == 0 {
		return "", nil
	}

	libDir := filepath.Join(scratch, "aux")
	if err := os.MkdirAll(libDir, 0o777); err != nil {
		return "", err
	}
	srcDir := filepath.Join(scratch, "aux-src")

	for _, aux := range props.AuxBuilds {
		src, err := r.stageAux(t, aux, srcDir)
		if err != nil {
			return "", err
		}

		auxSrc, err := os.ReadFile(src)
		if err != nil {
			return "", err
		}
		auxProps, err := header.Parse(src, auxSrc)
		if err != nil {
			return "", fmt.Errorf("aux-build %s: %w", aux, err)
		}

		argv := []string{r.cfg.Compiler, src, "--out-dir", libDir}
		if !hasCrateType(auxProps.CompileFlags) {
			argv = append(argv, "--crate-type=lib")
		}
		if auxProps.Edition != "" {
			argv = append(argv, "--edition", auxProps.Edition)
		}
		// Aux crates may depend on previously built ones.
		argv = append(argv, "-L", libDir)
		argv = append(argv, auxProps.CompileFlags...)

		p := r.exec(ctx, srcDir, nil, argv...)
		if !p.success() {
			return "", fmt.Errorf("aux-build %s failed:\n%s", aux, p.describe())
		}
	}
	return libDir, nil
}

// stageAux copies one auxiliary source file into srcDir, resolving it
// from the auxiliary/ directory next to the test or at the suite root.
func (r *Runner) stageAux(t *suite.Test, aux, srcDir string) (string, error) {
	if err := os.MkdirAll(srcDir, 0o777); err != nil {
		return "", err
	}

	candidates := []string{
		filepath.Join(filepath.Dir(t.File), "auxiliary", aux),
		filepath.Join(filepath.Dir(t.File), aux),
	}
	if t.Root != "" {
		candidates = append(candidates, filepath.Join(t.Root, "auxiliary", aux))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			dst := filepath.Join(srcDir, filepath.Base(aux))
			if err := copy.File(c, dst); err != nil {
				return "", err
			}
			return dst, nil
		}
	}
	return "", fmt.Errorf("aux-build %s: no such file under %s", aux, filepath.Dir(t.File))
}

func hasCrateType(flags []string) bool {
	for _, f := range flags {
		if f == "--crate-type" || strings.HasPrefix(f, "--crate-type=") {
			return true
		}
	}
	return false
}

// binaryPath returns where the compiler put the test executable.
func binaryPath(outDir, file string) string {
	name := strings.TrimSuffix(filepath.Base(file), ".rs")
	// Crate names use underscores where file names use dashes.
	name = strings.ReplaceAll(name, "-", "_")
	return filepath.Join(outDir, name+exeSuffix)
}

// run executes the compiled test binary.
func (r *Runner) run(ctx context.Context, bin string, props *header.Props) *proc {
	argv := append([]string{bin}, props.RunFlags...)
	return r.exec(ctx, filepath.Dir(bin), props.ExecEnv, argv...)
}
