// Package install places compiled libraries in the canonical output
// directory, either by checking the build tool already put them there or by
// copying them.
package install

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/leveldb-build/pkgs/target"
)

// ArtifactMissingError reports a library that is not where it must be after
// a successful build step.
type ArtifactMissingError struct {
	Dep  string
	Path string
	Err  error
}

func (e *ArtifactMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: artifact missing at %s: %v", e.Dep, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: artifact missing at %s", e.Dep, e.Path)
}

func (e *ArtifactMissingError) Unwrap() error {
	return e.Err
}

// Installer owns the canonical library directory.
type Installer struct {
	LibDir string
	Target target.Triple
}

// Path returns the canonical location of lib's static archive.
func (in *Installer) Path(lib string) string {
	return filepath.Join(in.LibDir, in.Target.StaticLibName(lib))
}

// Verify checks that a build tool installed into prefix placed lib in the
// canonical directory.
func (in *Installer) Verify(lib, prefix string) (string, error) {
	got := filepath.Clean(filepath.Join(prefix, "lib"))
	if got != filepath.Clean(in.LibDir) {
		return "", &ArtifactMissingError{
			Dep:  lib,
			Path: in.Path(lib),
			Err:  fmt.Errorf("build installed into %s, expected %s", got, in.LibDir),
		}
	}
	return in.check(lib)
}

// Copy copies the archive at built to the canonical directory. Copying the
// same archive again leaves the directory unchanged.
func (in *Installer) Copy(lib, built string) (string, error) {
	src, err := os.Open(built)
	if err != nil {
		return "", &ArtifactMissingError{Dep: lib, Path: built, Err: err}
	}
	defer src.Close()

	if err := os.MkdirAll(in.LibDir, 0o755); err != nil {
		return "", err
	}
	dest := in.Path(lib)
	if err := writeAtomic(dest, src, 0o644); err != nil {
		return "", fmt.Errorf("install %s: %w", lib, err)
	}
	return in.check(lib)
}

// CopyTree copies the directory tree at src into dest, overwriting files
// that already exist.
func CopyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return writeAtomic(target, f, info.Mode().Perm())
	})
}

func (in *Installer) check(lib string) (string, error) {
	p := in.Path(lib)
	fi, err := os.Stat(p)
	if err != nil {
		return "", &ArtifactMissingError{Dep: lib, Path: p, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return "", &ArtifactMissingError{Dep: lib, Path: p, Err: errors.New("not a regular file")}
	}
	return p, nil
}

func writeAtomic(dest string, r io.Reader, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
