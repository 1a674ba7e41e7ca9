package link

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Writer prints directives in one host build system's syntax.
type Writer interface {
	Write(w io.Writer, ds []Directive) error
}

var formats = map[string]Writer{
	"cargo": cargoFormat{},
	"plain": plainFormat{},
	"cgo":   &CgoFormat{Package: "leveldb"},
}

// Format returns the writer registered under name.
func Format(name string) (Writer, error) {
	if f, ok := formats[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown directive format %q (want one of %s)", name, strings.Join(FormatNames(), ", "))
}

// FormatNames lists the registered formats.
func FormatNames() []string {
	names := make([]string, 0, len(formats))
	for n := range formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// cargoFormat prints cargo build-script directives.
type cargoFormat struct{}

func (cargoFormat) Write(w io.Writer, ds []Directive) error {
	for _, d := range ds {
		var line string
		switch d.Kind {
		case SearchPath:
			line = "cargo:rustc-link-search=native=" + d.Value
		default:
			line = "cargo:rustc-link-lib=" + libSpec(d)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// plainFormat prints one "<kind> <value>" line per directive.
type plainFormat struct{}

func (plainFormat) Write(w io.Writer, ds []Directive) error {
	for _, d := range ds {
		value := d.Value
		if d.Kind != SearchPath {
			value = libSpec(d)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", d.Kind, value); err != nil {
			return err
		}
	}
	return nil
}

func libSpec(d Directive) string {
	if d.Static {
		return "static=" + d.Value
	}
	return d.Value
}

// CgoFormat prints a Go source file whose cgo preamble links the libraries.
type CgoFormat struct {
	Package string
}

func (f *CgoFormat) Write(w io.Writer, ds []Directive) error {
	_, err := fmt.Fprintf(w, "// Code generated by leveldb-build. DO NOT EDIT.\n\npackage %s\n\n// #cgo LDFLAGS: %s\nimport \"C\"\n", f.Package, f.LDFlags(ds))
	return err
}

// LDFlags renders ds as linker flags. Unlike the line formats, which keep
// directive order, a single command line must satisfy a one-pass linker:
// search paths come first, then the libraries with each dependent ahead of
// its dependencies, then the runtime.
func (f *CgoFormat) LDFlags(ds []Directive) string {
	var paths, libs, rt []string
	seen := map[string]bool{}
	for _, d := range ds {
		switch d.Kind {
		case SearchPath:
			if !seen[d.Value] {
				seen[d.Value] = true
				paths = append(paths, "-L"+d.Value)
			}
		case Library:
			libs = append([]string{"-l" + d.Value}, libs...)
		case Runtime:
			if d.Static {
				rt = append(rt, "-Wl,-Bstatic", "-l"+d.Value, "-Wl,-Bdynamic")
			} else {
				rt = append(rt, "-l"+d.Value)
			}
		}
	}
	flags := append(append(paths, libs...), rt...)
	return shellquote.Join(flags...)
}
