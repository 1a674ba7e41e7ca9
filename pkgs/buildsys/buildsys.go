package buildsys

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goplus/leveldb-build/internal/env"
	"github.com/kballard/go-shellquote"
)

// BuildSystem captures shared capabilities of build helpers (CMake, Autotools).
// It keeps the common lifecycle and dependency/env setup; implementations add their own extras.
type BuildSystem interface {
	// Use makes a dependency installed under prefix visible to the build.
	Use(prefix string)

	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helpers. Values only reach the spawned tools.
	Env(key, val string)
	Jobs(n int)

	// Lifecycle.
	Configure(args ...string) error
	Build(args ...string) error
	Install(args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// UseFlags adds the include and library directories of prefix to o, in the
// variables both CMake and Autotools read at configure time.
func UseFlags(o env.Overlay, prefix string, msvc bool) {
	includeDir := filepath.Join(prefix, "include")
	libDir := filepath.Join(prefix, "lib")

	o.PrependPath("PKG_CONFIG_PATH", filepath.Join(libDir, "pkgconfig"))
	o.PrependPath("CMAKE_PREFIX_PATH", prefix)
	o.PrependPath("CMAKE_INCLUDE_PATH", includeDir)
	o.PrependPath("CMAKE_LIBRARY_PATH", libDir)

	if msvc {
		o.PrependPath("INCLUDE", includeDir)
		o.PrependPath("LIB", libDir)
		o.AppendFlag("CFLAGS", quoteMSVC("/I"+includeDir))
		o.AppendFlag("CXXFLAGS", quoteMSVC("/I"+includeDir))
		o.AppendFlag("LDFLAGS", quoteMSVC("/LIBPATH:"+libDir))
		return
	}
	inc := shellquote.Join("-I" + includeDir)
	o.AppendFlag("CPPFLAGS", inc)
	o.AppendFlag("CFLAGS", inc+" -fPIC")
	o.AppendFlag("CXXFLAGS", inc+" -fPIC")
	o.AppendFlag("LDFLAGS", shellquote.Join("-L"+libDir))
}

// quoteMSVC double-quotes flags containing blanks. Backslashes are path
// separators there, so POSIX shell quoting does not apply.
func quoteMSVC(flag string) string {
	if strings.ContainsAny(flag, " \t") {
		return `"` + flag + `"`
	}
	return flag
}

// JobsEnv returns the variables that tell build tools how many compile jobs
// to run in parallel.
func JobsEnv(n int) env.Overlay {
	if n <= 0 {
		return env.Overlay{}
	}
	s := strconv.Itoa(n)
	return env.Overlay{
		"NUM_JOBS":                   s,
		"CMAKE_BUILD_PARALLEL_LEVEL": s,
		"MAKEFLAGS":                  "-j" + s,
	}
}
