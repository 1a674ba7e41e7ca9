// Package patch rewrites leveldb's build_detect_platform script so that a
// build without snappy cannot pick up a system copy of it.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Markers are the detection script lines that turn snappy support on.
var Markers = []string{
	`COMMON_FLAGS="$COMMON_FLAGS -DSNAPPY"`,
	`PLATFORM_LIBS="$PLATFORM_LIBS -lsnappy"`,
}

// Disabled replaces a marker line. ":" keeps the surrounding if-block
// syntactically valid.
const Disabled = ": # snappy disabled by leveldb-build"

// DetectScript is the name of the script inside the leveldb source tree.
const DetectScript = "build_detect_platform"

// Result is a transformed script.
type Result struct {
	Text    []byte
	Changed bool
}

// ScriptPatchError reports an I/O failure while producing the working copy.
type ScriptPatchError struct {
	Op   string // "read", "write" or "chmod"
	Path string
	Err  error
}

func (e *ScriptPatchError) Error() string {
	return fmt.Sprintf("patch %s: %s %s: %v", DetectScript, e.Op, e.Path, e.Err)
}

func (e *ScriptPatchError) Unwrap() error {
	return e.Err
}

// Patch returns the script with snappy detection neutralized unless snappy
// is enabled, in which case src is returned unchanged. Line count, order,
// indentation and line endings are preserved.
func Patch(src []byte, snappy bool) Result {
	if snappy {
		return Result{Text: bytes.Clone(src)}
	}
	lines := strings.SplitAfter(string(src), "\n")
	changed := false
	for i, line := range lines {
		if !matches(line) {
			continue
		}
		body, eol := splitEOL(line)
		indent := body[:len(body)-len(strings.TrimLeft(body, " \t"))]
		lines[i] = indent + Disabled + eol
		changed = true
	}
	return Result{Text: []byte(strings.Join(lines, "")), Changed: changed}
}

func matches(line string) bool {
	for _, m := range Markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func splitEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// File reads the template, writes the patched copy to out and adds the
// execute bits to out's mode. The template is never written.
func File(template, out string, snappy bool) (Result, error) {
	if filepath.Clean(template) == filepath.Clean(out) {
		return Result{}, &ScriptPatchError{Op: "write", Path: out, Err: errors.New("output is the template")}
	}
	src, err := os.ReadFile(template)
	if err != nil {
		return Result{}, &ScriptPatchError{Op: "read", Path: template, Err: err}
	}
	res := Patch(src, snappy)

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return res, &ScriptPatchError{Op: "write", Path: out, Err: err}
	}
	if err := os.WriteFile(out, res.Text, 0o644); err != nil {
		return res, &ScriptPatchError{Op: "write", Path: out, Err: err}
	}
	fi, err := os.Stat(out)
	if err != nil {
		return res, &ScriptPatchError{Op: "chmod", Path: out, Err: err}
	}
	if err := os.Chmod(out, fi.Mode().Perm()|0o111); err != nil {
		return res, &ScriptPatchError{Op: "chmod", Path: out, Err: err}
	}
	if err := checkExecutable(out); err != nil {
		return res, &ScriptPatchError{Op: "chmod", Path: out, Err: err}
	}
	return res, nil
}
