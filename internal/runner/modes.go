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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compiletest.org/go/compiletest/errors"
	"compiletest.org/go/compiletest/expect"
	"compiletest.org/go/compiletest/suite"
	"compiletest.org/go/internal/diag"
	"compiletest.org/go/internal/docck"
	"compiletest.org/go/internal/match"
)

// expectsWarnings reports whether any expectation asks for a warning, in
// which case stray warnings become failures too.
func expectsWarnings(exps []expect.Expectation) bool {
	for _, e := range exps {
		if e.Kind == expect.Warning {
			return true
		}
	}
	return false
}

func (r *Runner) runCompileFail(ctx context.Context, t *suite.Test, scratch string) error {
	props := t.Props.ForRevision("")

	auxLib, err := r.buildAux(ctx, t, props, scratch)
	if err != nil {
		return err
	}

	c, err := r.compile(ctx, t.File, props, compileOpts{outDir: scratch, auxLib: auxLib})
	if err != nil {
		return err
	}

	if props.MustCompileSuccessfully {
		if !c.proc.success() {
			return fmt.Errorf("compilation failed but was expected to succeed:\n%s", c.proc.describe())
		}
	} else if c.proc.success() {
		return fmt.Errorf("compilation succeeded but was expected to fail:\n%s", c.proc.describe())
	}

	var errs errors.List
	// Fixtures that rely on error-pattern alone are not annotated per
	// diagnostic, so strict matching applies only when annotations exist.
	if len(t.Expectations) > 0 {
		errs.Add(match.Diagnostics(t.Expectations, c.diags, match.Options{
			File:                   t.File,
			AllowUnmatchedWarnings: !expectsWarnings(t.Expectations),
		}))
	}
	errs.Add(match.Patterns(props.ErrorPatterns, c.output()))
	return errs.Err()
}

func (r *Runner) runRunPass(ctx context.Context, t *suite.Test, scratch string) error {
	props := t.Props.ForRevision("")

	auxLib, err := r.buildAux(ctx, t, props, scratch)
	if err != nil {
		return err
	}

	c, err := r.compile(ctx, t.File, props, compileOpts{outDir: scratch, auxLib: auxLib})
	if err != nil {
		return err
	}
	if !c.proc.success() {
		return fmt.Errorf("compilation failed:\n%s", c.proc.describe())
	}

	// Annotated warnings still apply to run-pass fixtures.
	if err := match.Diagnostics(t.Expectations, c.diags, match.Options{
		File:                   t.File,
		AllowUnmatchedWarnings: true,
	}); err != nil {
		return err
	}

	p := r.run(ctx, binaryPath(scratch, t.File), props)
	if !p.success() {
		return fmt.Errorf("test binary failed:\n%s", p.describe())
	}
	return nil
}

func (r *Runner) runUI(ctx context.Context, t *suite.Test, scratch string) error {
	props := t.Props.ForRevision("")

	auxLib, err := r.buildAux(ctx, t, props, scratch)
	if err != nil {
		return err
	}

	c, err := r.compile(ctx, t.File, props, compileOpts{outDir: scratch, auxLib: auxLib})
	if err != nil {
		return err
	}

	var errs errors.List

	// A ui test's verdict comes from its golden output and annotations,
	// not from the compiler's exit status alone; but run-pass ui tests
	// must build.
	if props.RunPass && !c.proc.success() {
		return fmt.Errorf("compilation failed:\n%s", c.proc.describe())
	}

	if len(t.Expectations) > 0 {
		errs.Add(match.Diagnostics(t.Expectations, c.diags, match.Options{
			File: t.File,
		}))
	}
	errs.Add(match.Patterns(props.ErrorPatterns, c.output()))

	dir := filepath.Dir(t.File)
	errs.Add(r.compareGolden(t, "stderr", diag.Normalize(diag.Rendered(c.diags)+c.freeform, dir)))
	errs.Add(r.compareGolden(t, "stdout", diag.Normalize(c.proc.stdout.String(), dir)))

	if props.RunPass {
		p := r.run(ctx, binaryPath(scratch, t.File), props)
		if !p.success() {
			errs.Add(fmt.Errorf("test binary failed:\n%s", p.describe()))
		}
	}
	return errs.Err()
}

func (r *Runner) runIncremental(ctx context.Context, t *suite.Test, scratch string) error {
	incrDir := filepath.Join(scratch, "incr")
	if err := os.MkdirAll(incrDir, 0o777); err != nil {
		return err
	}

	for _, rev := range t.Props.Revisions {
		props := t.Props.ForRevision(rev)
		if skip, _ := props.Ignored(r.cfg.Target); skip {
			continue
		}

		auxLib, err := r.buildAux(ctx, t, props, scratch)
		if err != nil {
			return fmt.Errorf("revision %s: %w", rev, err)
		}

		c, err := r.compile(ctx, t.File, props, compileOpts{
			outDir:   scratch,
			auxLib:   auxLib,
			revision: rev,
			incrDir:  incrDir,
		})
		if err != nil {
			return fmt.Errorf("revision %s: %w", rev, err)
		}

		exps := expect.ForRevision(t.Expectations, rev)

		switch {
		case strings.HasPrefix(rev, "rpass"), strings.HasPrefix(rev, "rfail"):
			if !c.proc.success() {
				return fmt.Errorf("revision %s: compilation failed:\n%s", rev, c.proc.describe())
			}
			if err := match.Diagnostics(exps, c.diags, match.Options{
				File:                   t.File,
				AllowUnmatchedWarnings: true,
			}); err != nil {
				return fmt.Errorf("revision %s: %w", rev, err)
			}
			if strings.HasPrefix(rev, "rfail") {
				p := r.run(ctx, binaryPath(scratch, t.File), props)
				if p.success() {
					return fmt.Errorf("revision %s: test binary succeeded but was expected to fail:\n%s", rev, p.describe())
				}
			}

		case strings.HasPrefix(rev, "cfail"):
			if c.proc.success() {
				return fmt.Errorf("revision %s: compilation succeeded but was expected to fail:\n%s", rev, c.proc.describe())
			}
			var errs errors.List
			if len(exps) > 0 {
				errs.Add(match.Diagnostics(exps, c.diags, match.Options{
					File:                   t.File,
					AllowUnmatchedWarnings: !expectsWarnings(exps),
				}))
			}
			errs.Add(match.Patterns(props.ErrorPatterns, c.output()))
			if err := errs.Err(); err != nil {
				return fmt.Errorf("revision %s: %w", rev, err)
			}
		}
	}
	return nil
}

func (r *Runner) runRustdoc(ctx context.Context, t *suite.Test, scratch string) error {
	if r.cfg.Rustdoc == "" {
		return fmt.Errorf("no rustdoc configured")
	}
	props := t.Props.ForRevision("")

	auxLib, err := r.buildAux(ctx, t, props, scratch)
	if err != nil {
		return err
	}

	outDir := filepath.Join(scratch, "doc")
	argv := []string{r.cfg.Rustdoc, t.File, "-o", outDir}
	if props.Edition != "" {
		argv = append(argv, "--edition", props.Edition)
	}
	if auxLib != "" {
		argv = append(argv, "-L", auxLib)
	}
	argv = append(argv, props.CompileFlags...)

	p := r.exec(ctx, filepath.Dir(t.File), nil, argv...)
	if !p.success() {
		return fmt.Errorf("rustdoc failed:\n%s", p.describe())
	}

	src, err := os.ReadFile(t.File)
	if err != nil {
		return err
	}
	cmds, err := docck.Parse(t.File, src)
	if err != nil {
		return err
	}
	return docck.Check(outDir, cmds)
}

// compareGolden diffs got against the fixture's .<ext> golden file, or
// rewrites the golden when blessing. A missing golden file means empty
// expected output; blessing an empty result removes the file.
func (r *Runner) compareGolden(t *suite.Test, ext, got string) error {
	golden := strings.TrimSuffix(t.File, ".rs") + "." + ext

	want, err := os.ReadFile(golden)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if r.cfg.Bless {
		if got == "" {
			if err == nil {
				return os.Remove(golden)
			}
			return nil
		}
		return os.WriteFile(golden, []byte(got), 0o666)
	}

	if string(want) == got {
		return nil
	}
	return fmt.Errorf("%s differs from expected:\n%s", filepath.Base(golden), diffText(string(want), got))
}
