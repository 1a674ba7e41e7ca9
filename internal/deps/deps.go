// Package deps maps pinned dependency versions to vendored source
// directories.
package deps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/leveldb-build/pkgs/gnu"
	"github.com/goplus/leveldb-build/pkgs/mod/module"
	"golang.org/x/mod/semver"
)

// Spec describes one native dependency for the duration of a build.
type Spec struct {
	Name      string
	Version   string
	SourceDir string
	OutputDir string
}

// Module returns the module identity of s.
func (s Spec) Module() module.Version {
	return module.Version{ID: s.Name, Version: s.Version}
}

// MissingSourceError reports a vendored source directory that does not
// exist.
type MissingSourceError struct {
	Dir       string
	Available []string // other versions of the same dependency under the root
}

func (e *MissingSourceError) Error() string {
	msg := fmt.Sprintf("missing vendored source: %s", e.Dir)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (found %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

// Locator builds source paths under a fixed vendor root. It performs no
// filesystem access; existence is checked when a directory is used.
type Locator struct {
	Root    string // vendor root, conventionally "<manifest>/deps"
	LibDir  string // canonical output directory shared by all deps
	WorkDir string // scratch directory for unpacked archives
}

// Locate returns the Spec for name at version.
func (l *Locator) Locate(name, version string) Spec {
	return Spec{
		Name:      name,
		Version:   version,
		SourceDir: filepath.Join(l.Root, name+"-"+version),
		OutputDir: l.LibDir,
	}
}

// Materialize makes sure s.SourceDir exists. When only an archive of the
// source is vendored it is unpacked into the work directory and the
// returned Spec points there.
func (l *Locator) Materialize(s Spec) (Spec, error) {
	if fi, err := os.Stat(s.SourceDir); err == nil && fi.IsDir() {
		return s, nil
	}
	dirName, err := s.Module().DirName()
	if err != nil {
		return s, err
	}
	for _, ext := range archiveExts {
		archive := filepath.Join(l.Root, dirName+ext)
		if _, err := os.Stat(archive); err != nil {
			continue
		}
		dest := filepath.Join(l.WorkDir, "src")
		if err := Unpack(archive, dest); err != nil {
			return s, fmt.Errorf("unpack %s: %w", archive, err)
		}
		s.SourceDir = filepath.Join(dest, dirName)
		if fi, err := os.Stat(s.SourceDir); err != nil || !fi.IsDir() {
			return s, l.missing(s)
		}
		return s, nil
	}
	return s, l.missing(s)
}

func (l *Locator) missing(s Spec) error {
	avail, _ := Available(l.Root, s.Name)
	return &MissingSourceError{Dir: s.SourceDir, Available: avail}
}

// CheckDir returns a *MissingSourceError if dir is not an existing
// directory.
func CheckDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil && fi.IsDir() {
		return nil
	}
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return &MissingSourceError{Dir: dir}
	}
	return err
}

// Available lists the versions of name vendored under root, oldest first.
func Available(root, name string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	prefix := name + "-"
	var vers []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		vers = append(vers, strings.TrimPrefix(e.Name(), prefix))
	}
	gnu.Sort(vers, compareVersions)
	return vers, nil
}

// compareVersions uses semver precedence when both sides are semver, so
// "1.2.0-rc1" sorts before "1.2.0", and GNU version order otherwise.
var compareVersions module.VersionComparator = func(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
	}
	return gnu.Compare(a, b)
}
