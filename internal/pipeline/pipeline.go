// Package pipeline drives a complete native build: resolve the plan, build
// snappy and leveldb in order, install the archives and compute the linker
// directives.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/leveldb-build/internal/deps"
	"github.com/goplus/leveldb-build/internal/install"
	"github.com/goplus/leveldb-build/internal/link"
	"github.com/goplus/leveldb-build/internal/patch"
	"github.com/goplus/leveldb-build/internal/plan"
	"github.com/goplus/leveldb-build/internal/runner"
	"github.com/goplus/leveldb-build/internal/styles"
	"github.com/goplus/leveldb-build/pkgs/buildsys/autotools"
	"github.com/goplus/leveldb-build/pkgs/buildsys/cmake"
	"github.com/goplus/leveldb-build/pkgs/mod/versions"
	"github.com/qiniu/x/log"
)

// LibDir is the name of the canonical library directory under OutDir.
const LibDir = "lib"

// UnsupportedPathError reports a path the native build tools cannot handle.
type UnsupportedPathError struct {
	Path   string
	Reason string
}

func (e *UnsupportedPathError) Error() string {
	return fmt.Sprintf("can't build at %s: %s", e.Path, e.Reason)
}

// Options configures one run.
type Options struct {
	Features   plan.Features
	Target     string
	Pins       *versions.Versions
	VendorRoot string // directory holding <name>-<version> sources
	OutDir     string // install prefix; archives land in OutDir/lib
	Jobs       int
	Runner     runner.Runner
}

// Result is what a successful run produced.
type Result struct {
	Plan       *plan.Plan
	LibDir     string
	Artifacts  []string
	Directives []link.Directive
}

type builder struct {
	opts      Options
	plan      *plan.Plan
	libDir    string
	locator   *deps.Locator
	installer *install.Installer
	artifacts []string
}

// Run executes the whole pipeline. It stops at the first error; no
// directives are produced unless every required artifact is in place.
func Run(opts Options) (*Result, error) {
	p := plan.Resolve(opts.Features, opts.Target, opts.Pins)
	log.Infof("%s Started (target %s, snappy=%v, vendor=%v)", styles.Tag("build"), p.TargetTriple, p.Snappy, p.Vendor)

	if !p.Vendor {
		log.Infof("%s Using system libraries", styles.Tag("build"))
		return &Result{Plan: p, Directives: link.Directives(p, "")}, nil
	}

	if err := checkPath(opts.OutDir); err != nil {
		return nil, err
	}
	libDir := filepath.Join(opts.OutDir, LibDir)
	b := &builder{
		opts:   opts,
		plan:   p,
		libDir: libDir,
		locator: &deps.Locator{
			Root:    opts.VendorRoot,
			LibDir:  libDir,
			WorkDir: opts.OutDir,
		},
		installer: &install.Installer{LibDir: libDir, Target: p.Target},
	}

	var snappyPrefix string
	for _, step := range p.Steps {
		spec, err := b.source(step)
		if err != nil {
			return nil, err
		}
		log.Infof("%s Building %s (%s)", styles.Tag(step.Dep.ID), step.Dep, step.Build)
		switch step.Dep.ID {
		case plan.Snappy:
			snappyPrefix, err = b.buildSnappy(spec, step.Build)
		case plan.LevelDB:
			err = b.buildLevelDB(spec, step.Build, snappyPrefix)
		default:
			err = fmt.Errorf("no build recipe for %s", step.Dep)
		}
		if err != nil {
			return nil, err
		}
	}

	log.Infof("%s %s", styles.Tag("build"), styles.Success("Finished"))
	return &Result{
		Plan:       p,
		LibDir:     libDir,
		Artifacts:  b.artifacts,
		Directives: link.Directives(p, libDir),
	}, nil
}

func (b *builder) source(step plan.Step) (deps.Spec, error) {
	spec := b.locator.Locate(step.Dep.ID, step.Dep.Version)
	spec, err := b.locator.Materialize(spec)
	if err != nil {
		return spec, err
	}
	return spec, checkPath(spec.SourceDir)
}

func (b *builder) buildDir(spec deps.Spec) string {
	return filepath.Join(b.opts.OutDir, "build", spec.Name+"-"+spec.Version)
}

func (b *builder) buildSnappy(spec deps.Spec, kind versions.BuildKind) (string, error) {
	msvc := b.plan.Target.IsMSVC()
	var prefix string

	switch kind {
	case versions.Make:
		a := autotools.New(b.opts.Runner, spec.Name, spec.SourceDir, b.buildDir(spec), b.opts.OutDir).MSVC(msvc)
		a.Jobs(b.opts.Jobs)
		if err := a.Configure("--libdir="+b.libDir, "--disable-shared", "--enable-static", "--with-pic"); err != nil {
			return "", err
		}
		if err := a.Build(); err != nil {
			return "", err
		}
		if err := a.Install(); err != nil {
			return "", err
		}
		prefix = a.OutputDir()
	default:
		c := cmake.New(b.opts.Runner, spec.Name, spec.SourceDir, b.buildDir(spec), b.opts.OutDir).MSVC(msvc)
		c.BuildType("Release")
		c.Jobs(b.opts.Jobs)
		c.DefineBool("BUILD_SHARED_LIBS", false)
		c.DefineBool("SNAPPY_BUILD_TESTS", false)
		c.DefineBool("SNAPPY_BUILD_BENCHMARKS", false)
		c.DefineBool("HAVE_LIBZ", false)
		c.DefineBool("CMAKE_POSITION_INDEPENDENT_CODE", true)
		c.DefinePath("CMAKE_INSTALL_LIBDIR", b.libDir)
		if err := runCMake(c); err != nil {
			return "", err
		}
		prefix = c.OutputDir()
	}

	artifact, err := b.installer.Verify(spec.Name, prefix)
	if err != nil {
		return "", err
	}
	b.artifacts = append(b.artifacts, artifact)
	return prefix, nil
}

func (b *builder) buildLevelDB(spec deps.Spec, kind versions.BuildKind, snappyPrefix string) error {
	msvc := b.plan.Target.IsMSVC()

	if kind == versions.Make {
		return b.buildLevelDBMake(spec, snappyPrefix, msvc)
	}

	c := cmake.New(b.opts.Runner, spec.Name, spec.SourceDir, b.buildDir(spec), b.opts.OutDir).MSVC(msvc)
	c.BuildType("Release")
	c.Jobs(b.opts.Jobs)
	c.DefineBool("BUILD_SHARED_LIBS", false)
	c.DefineBool("LEVELDB_BUILD_TESTS", false)
	c.DefineBool("LEVELDB_BUILD_BENCHMARKS", false)
	c.DefineBool("LEVELDB_INSTALL", true)
	c.DefineBool("CMAKE_POSITION_INDEPENDENT_CODE", true)
	c.DefinePath("CMAKE_INSTALL_LIBDIR", b.libDir)
	if snappyPrefix != "" {
		c.Use(snappyPrefix)
		c.DefineBool("HAVE_SNAPPY", true)
	} else {
		c.DefineBool("HAVE_SNAPPY", false)
	}
	if err := runCMake(c); err != nil {
		return err
	}

	artifact, err := b.installer.Verify(spec.Name, c.OutputDir())
	if err != nil {
		return err
	}
	b.artifacts = append(b.artifacts, artifact)
	return nil
}

// buildLevelDBMake builds a Makefile-based leveldb release in a copy of the
// source tree, whose detection script is rewritten first.
func (b *builder) buildLevelDBMake(spec deps.Spec, snappyPrefix string, msvc bool) error {
	if err := deps.CheckDir(spec.SourceDir); err != nil {
		return err
	}
	work := b.buildDir(spec)
	if err := install.CopyTree(spec.SourceDir, work); err != nil {
		return fmt.Errorf("copy %s: %w", spec.SourceDir, err)
	}

	res, err := patch.File(
		filepath.Join(spec.SourceDir, patch.DetectScript),
		filepath.Join(work, patch.DetectScript),
		b.plan.Snappy,
	)
	if err != nil {
		return err
	}
	if res.Changed {
		log.Infof("%s Disabled snappy detection in %s", styles.Tag(spec.Name), patch.DetectScript)
	} else if b.plan.PatchDetect {
		log.Warnf("%s %s", styles.Tag(spec.Name), styles.Warning("no snappy markers found in "+patch.DetectScript))
	}

	a := autotools.New(b.opts.Runner, spec.Name, work, "", "").MSVC(msvc)
	a.Jobs(b.opts.Jobs)
	if snappyPrefix != "" {
		a.Use(snappyPrefix)
	}
	archive := "out-static/" + b.plan.Target.StaticLibName(spec.Name)
	if err := a.Build("make", archive); err != nil {
		return err
	}

	artifact, err := b.installer.Copy(spec.Name, filepath.Join(work, filepath.FromSlash(archive)))
	if err != nil {
		return err
	}
	b.artifacts = append(b.artifacts, artifact)

	headers := filepath.Join(work, "include")
	if _, err := os.Stat(headers); err != nil {
		log.Warnf("%s no headers at %s", styles.Tag(spec.Name), headers)
		return nil
	}
	return install.CopyTree(headers, filepath.Join(b.opts.OutDir, "include"))
}

func runCMake(c *cmake.CMake) error {
	if err := c.Configure(); err != nil {
		return err
	}
	if err := c.Build(); err != nil {
		return err
	}
	return c.Install()
}

// checkPath rejects paths the CMake and make builds are known to mangle.
func checkPath(p string) error {
	if strings.Contains(p, `"`) {
		return &UnsupportedPathError{Path: p, Reason: "path contains double quotes"}
	}
	return nil
}
