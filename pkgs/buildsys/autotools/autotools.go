// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"os"
	"path/filepath"

	"github.com/goplus/leveldb-build/internal/deps"
	"github.com/goplus/leveldb-build/internal/env"
	"github.com/goplus/leveldb-build/internal/runner"
	"github.com/goplus/leveldb-build/pkgs/buildsys"
)

// AutoTools drives Autotools-style and plain Makefile builds through a
// runner.Runner.
type AutoTools struct {
	r          runner.Runner
	name       string
	SourceDir  string
	buildDir   string
	installDir string
	msvc       bool
	env        env.Overlay
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New creates an AutoTools helper for the dependency called name. An empty
// buildDir builds in the source tree.
func New(r runner.Runner, name, sourceDir, buildDir, installDir string) *AutoTools {
	return &AutoTools{
		r:          r,
		name:       name,
		SourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		env:        env.Overlay{},
	}
}

func (a *AutoTools) Source(dir string) {
	a.SourceDir = dir
}

func (a *AutoTools) InstallDir(dir string) {
	a.installDir = dir
}

// MSVC selects MSVC-style flags for Use.
func (a *AutoTools) MSVC(on bool) *AutoTools {
	a.msvc = on
	return a
}

func (a *AutoTools) Env(key, value string) {
	a.env.Set(key, value)
}

func (a *AutoTools) Jobs(n int) {
	a.env = a.env.With(buildsys.JobsEnv(n))
}

// Environment returns a copy of the overlay passed to every tool call.
func (a *AutoTools) Environment() env.Overlay {
	return a.env.Clone()
}

// Use points the build at a dependency installed under prefix.
func (a *AutoTools) Use(prefix string) {
	buildsys.UseFlags(a.env, prefix, a.msvc)
}

// Configure runs <source>/configure with --prefix from the build directory.
func (a *AutoTools) Configure(args ...string) error {
	if err := deps.CheckDir(a.SourceDir); err != nil {
		return err
	}
	dir := a.workDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	exe := filepath.Join(a.SourceDir, "configure")
	configArgs := []string{}
	if a.installDir != "" {
		configArgs = append(configArgs, "--prefix="+a.installDir)
	}
	configArgs = append(configArgs, args...)

	return a.run("configure", exe, configArgs)
}

// Build runs make (or the provided command) in the build directory.
func (a *AutoTools) Build(args ...string) error {
	cmdArgs := []string{"make"}
	if len(args) > 0 {
		cmdArgs = args
	}
	return a.run("build", cmdArgs[0], cmdArgs[1:])
}

// Install runs make install (or the provided command) in the build directory.
func (a *AutoTools) Install(args ...string) error {
	cmdArgs := []string{"make", "install"}
	if len(args) > 0 {
		cmdArgs = args
	}
	return a.run("install", cmdArgs[0], cmdArgs[1:])
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.workDir()
}

func (a *AutoTools) workDir() string {
	if a.buildDir == "" {
		return a.SourceDir
	}
	return a.buildDir
}

func (a *AutoTools) run(phase, bin string, args []string) error {
	_, err := a.r.Run(runner.Invocation{
		Step: a.name + "/" + phase,
		Dir:  a.workDir(),
		Bin:  bin,
		Args: args,
		Env:  a.env.Clone(),
	})
	return err
}
