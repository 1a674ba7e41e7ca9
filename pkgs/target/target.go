// Package target parses target triples such as "x86_64-unknown-linux-gnu"
// into the OS and ABI facts the build pipeline branches on.
package target

import (
	"runtime"
	"strings"
)

// Triple is a parsed target triple. Raw keeps the original string because
// runtime selection matches on substrings of the whole triple.
type Triple struct {
	Raw    string
	Arch   string
	Vendor string
	OS     string
	Env    string
}

// Parse splits a triple into its components. It never fails: missing
// components are left empty.
//
//	arch-os                 (2 parts)
//	arch-vendor-os          (3 parts)
//	arch-vendor-os-env      (4 or more parts, extra parts join the env)
func Parse(s string) Triple {
	t := Triple{Raw: s}
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 0:
	case 1:
		t.Arch = parts[0]
	case 2:
		t.Arch, t.OS = parts[0], parts[1]
	case 3:
		t.Arch, t.Vendor, t.OS = parts[0], parts[1], parts[2]
	default:
		t.Arch, t.Vendor, t.OS = parts[0], parts[1], parts[2]
		t.Env = strings.Join(parts[3:], "-")
	}
	return t
}

// Host returns a best-effort triple for the running platform.
func Host() Triple {
	arch := map[string]string{
		"amd64":   "x86_64",
		"386":     "i686",
		"arm64":   "aarch64",
		"arm":     "armv7",
		"riscv64": "riscv64gc",
		"wasm":    "wasm32",
	}[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}
	switch runtime.GOOS {
	case "darwin":
		return Parse(arch + "-apple-darwin")
	case "linux":
		return Parse(arch + "-unknown-linux-gnu")
	case "windows":
		return Parse(arch + "-pc-windows-msvc")
	}
	return Parse(arch + "-unknown-" + runtime.GOOS)
}

func (t Triple) String() string {
	return t.Raw
}

// Contains reports whether token appears anywhere in the raw triple.
func (t Triple) Contains(token string) bool {
	return strings.Contains(t.Raw, token)
}

// IsMSVC reports whether the target uses the MSVC toolchain.
func (t Triple) IsMSVC() bool {
	return t.Env == "msvc" || strings.HasSuffix(t.Raw, "-msvc")
}

// StaticLibName returns the file name of the static archive for lib.
func (t Triple) StaticLibName(lib string) string {
	if t.IsMSVC() {
		return lib + ".lib"
	}
	return "lib" + lib + ".a"
}

// Runtime is the C++ standard library a target links against.
type Runtime struct {
	Name   string
	Static bool
}

// CxxRuntime selects the C++ runtime for the target. ok is false for OS
// families it does not recognize; callers emit nothing in that case.
//
// musl targets get a static libstdc++; the caller must provide the search
// path for it.
func (t Triple) CxxRuntime() (rt Runtime, ok bool) {
	switch {
	case t.Contains("apple") || t.Contains("freebsd"):
		return Runtime{Name: "c++"}, true
	case t.Contains("gnu") || t.Contains("netbsd") || t.Contains("openbsd"):
		return Runtime{Name: "stdc++"}, true
	case t.Contains("musl"):
		return Runtime{Name: "stdc++", Static: true}, true
	}
	return Runtime{}, false
}
