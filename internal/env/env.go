// Package env holds the scratch directory defaults and the environment
// overlay handed to every spawned build tool.
package env

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// WorkDir returns the default scratch root used when no output directory
// is given.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "leveldb-build"), nil
}

// Overlay is a set of variables layered over the inherited process
// environment for one tool invocation. The process environment itself is
// never modified.
type Overlay map[string]string

// Set sets key to val.
func (o Overlay) Set(key, val string) {
	o[key] = val
}

// AppendFlag appends a space-separated flag to key.
func (o Overlay) AppendFlag(key, flag string) {
	if cur := o[key]; cur != "" {
		flag = cur + " " + flag
	}
	o[key] = flag
}

// PrependPath prepends value to a PATH-style variable.
func (o Overlay) PrependPath(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	if cur := o[key]; cur != "" {
		value += sep + cur
	}
	o[key] = value
}

// Clone returns an independent copy of o.
func (o Overlay) Clone() Overlay {
	out := make(Overlay, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// With returns a copy of o with every entry of other applied on top.
func (o Overlay) With(other Overlay) Overlay {
	out := o.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the overlay's variable names, sorted.
func (o Overlay) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns base with the overlay applied, as a sorted KEY=VALUE list
// suitable for exec.Cmd.Env. On Windows variable names are case-insensitive:
// an overlay key replaces an inherited one that differs only in case.
func (o Overlay) Merge(base []string) []string {
	return o.merge(base, runtime.GOOS == "windows")
}

func (o Overlay) merge(base []string, foldCase bool) []string {
	envMap := make(map[string]string, len(base)+len(o))
	names := make(map[string]string, len(base)+len(o)) // folded key -> key
	set := func(k, v string) {
		id := k
		if foldCase {
			id = strings.ToUpper(k)
			if prev, ok := names[id]; ok && prev != k {
				delete(envMap, prev)
			}
			names[id] = k
		}
		envMap[k] = v
	}
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			set(k, v)
		}
	}
	for _, k := range o.Keys() {
		set(k, o[k])
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
