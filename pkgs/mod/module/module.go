// Package module defines the module.Version type along with support code.
package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// A Version identifies one pinned native dependency, e.g. snappy@1.1.7.
type Version struct {
	ID      string // Dependency name, e.g. "leveldb"
	Version string // Pinned version, e.g. "1.22"
}

func (v Version) String() string {
	return v.ID + "@" + v.Version
}

// DirName returns the vendored directory name of v, "<id>-<version>".
// It fails if the result is not a single local path element.
func (v Version) DirName() (string, error) {
	if v.ID == "" || v.Version == "" {
		return "", errors.New("module: empty id or version")
	}
	name := v.ID + "-" + v.Version
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("module: %s is not a single path element", name)
	}
	if _, err := filepath.Localize(name); err != nil {
		return "", fmt.Errorf("module: %s: %w", name, err)
	}
	return name, nil
}

// VersionComparator orders two version strings.
type VersionComparator func(v1, v2 string) int
