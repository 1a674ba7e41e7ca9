// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/leveldb-build/internal/env"
	"github.com/goplus/leveldb-build/internal/runner"
	"github.com/goplus/leveldb-build/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds through a runner.Runner.
type CMake struct {
	r          runner.Runner
	name       string
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	msvc       bool
	Defines    map[string]defineValue
	env        env.Overlay
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the dependency called name. Step names
// reported by the runner are "<name>/configure", "<name>/build" and
// "<name>/install".
func New(r runner.Runner, name, sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		r:          r,
		name:       name,
		SourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		Defines:    map[string]defineValue{},
		env:        env.Overlay{},
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// MSVC selects MSVC-style flags for Use.
func (c *CMake) MSVC(on bool) *CMake {
	c.msvc = on
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefinePath(key, value string) *CMake {
	c.Defines[key] = defineValue{value: value, typeName: "PATH"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	c.env.Set(key, value)
}

func (c *CMake) Jobs(n int) {
	c.env = c.env.With(buildsys.JobsEnv(n))
}

// Environment returns a copy of the overlay passed to every cmake call.
func (c *CMake) Environment() env.Overlay {
	return c.env.Clone()
}

// Use points the build at a dependency installed under prefix.
func (c *CMake) Use(prefix string) {
	buildsys.UseFlags(c.env, prefix, c.msvc)
}

// Configure runs "cmake -S <source> -B <build>" from the source directory.
func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.DefinePath("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.DefinePath("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.DefinesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run("configure", c.SourceDir, cmakeArgs)
}

func (c *CMake) Build(args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run("build", c.buildDir, cmdArgs)
}

func (c *CMake) Install(args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run("install", c.buildDir, cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

// DefinesArgs renders the defines as sorted -DKEY:TYPE=VALUE arguments.
func (c *CMake) DefinesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) run(phase, dir string, args []string) error {
	_, err := c.r.Run(runner.Invocation{
		Step: c.name + "/" + phase,
		Dir:  filepath.Clean(dir),
		Bin:  "cmake",
		Args: args,
		Env:  c.env.Clone(),
	})
	return err
}
