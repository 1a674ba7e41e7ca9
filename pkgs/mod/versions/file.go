// Package versions holds the table of pinned native dependency versions.
package versions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/leveldb-build/pkgs/gnu"
	"github.com/goplus/leveldb-build/pkgs/mod/module"
	"gopkg.in/yaml.v3"
)

// BuildKind names the build system used for a vendored dependency.
type BuildKind string

const (
	CMake BuildKind = "cmake"
	Make  BuildKind = "make"
)

// Pin is the pinned version of one dependency.
type Pin struct {
	Version string    `json:"version" yaml:"version"`
	Build   BuildKind `json:"build,omitempty" yaml:"build,omitempty"`
}

type Versions struct {
	Deps map[string]Pin `json:"deps" yaml:"deps"`
}

// Default returns the built-in pins.
func Default() *Versions {
	return &Versions{
		Deps: map[string]Pin{
			"snappy":  {Version: "1.1.7", Build: CMake},
			"leveldb": {Version: "1.22", Build: CMake},
		},
	}
}

// Parse decodes a versions file. If data is nil the file is read from disk.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
func Parse(file string, data []byte) (*Versions, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewBuffer(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var v Versions

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(reader).Decode(&v); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		if err := json.NewDecoder(reader).Decode(&v); err != nil {
			return nil, err
		}
	}

	return &v, nil
}

// Merge returns a copy of v with every pin in override replacing v's.
// A pin without a build kind keeps the one it replaces.
func (v *Versions) Merge(override *Versions) *Versions {
	out := &Versions{Deps: make(map[string]Pin, len(v.Deps))}
	for k, p := range v.Deps {
		out.Deps[k] = p
	}
	if override == nil {
		return out
	}
	for k, p := range override.Deps {
		if p.Build == "" {
			p.Build = out.Deps[k].Build
		}
		out.Deps[k] = p
	}
	return out
}

// Validate checks that every pin is a dotted numeric release and names a
// known build system.
func (v *Versions) Validate() error {
	ids := make([]string, 0, len(v.Deps))
	for id := range v.Deps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := v.Deps[id]
		if !gnu.IsRelease(p.Version) {
			return fmt.Errorf("versions: %s: invalid version %q", id, p.Version)
		}
		switch p.Build {
		case CMake, Make:
		default:
			return fmt.Errorf("versions: %s: unknown build system %q", id, p.Build)
		}
	}
	return nil
}

// Lookup returns the pinned module version and build system for id.
func (v *Versions) Lookup(id string) (module.Version, BuildKind, bool) {
	p, ok := v.Deps[id]
	if !ok {
		return module.Version{}, "", false
	}
	return module.Version{ID: id, Version: p.Version}, p.Build, true
}
