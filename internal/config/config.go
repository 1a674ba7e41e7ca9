// Package config gathers the orchestrator's inputs from an optional .env
// file, the environment of the host build and the versions table.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/goplus/leveldb-build/internal/env"
	"github.com/goplus/leveldb-build/internal/plan"
	"github.com/goplus/leveldb-build/pkgs/mod/versions"
	"github.com/goplus/leveldb-build/pkgs/target"
	"github.com/joho/godotenv"
)

// VendorDir is the vendor root under the manifest directory.
const VendorDir = "deps"

// versionFiles are tried in order under the vendor root.
var versionFiles = []string{"versions.yaml", "versions.yml", "versions.json"}

type Config struct {
	Features    plan.Features
	Target      string
	ManifestDir string
	VendorRoot  string
	OutDir      string
	Jobs        int
	Format      string
	Pins        *versions.Versions
}

// Lookup reads one variable; ok is false when it is unset.
type Lookup func(key string) (val string, ok bool)

// Load reads configuration for the package rooted at manifestDir. Process
// environment variables take precedence over <manifestDir>/.env, which is
// read without modifying the process environment.
func Load(manifestDir string) (*Config, error) {
	dotenv, err := godotenv.Read(filepath.Join(manifestDir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	return FromLookup(manifestDir, lookup)
}

// FromLookup builds a Config from manifestDir and the given variables.
//
// Toggles come from LEVELDB_SNAPPY and LEVELDB_VENDOR. When the host is
// cargo (CARGO_MANIFEST_DIR set) the presence of CARGO_FEATURE_SNAPPY and
// CARGO_FEATURE_VENDOR enables the features instead. Both default to on.
func FromLookup(manifestDir string, lookup Lookup) (*Config, error) {
	if manifestDir == "" {
		if dir, ok := lookup("CARGO_MANIFEST_DIR"); ok && dir != "" {
			manifestDir = dir
		} else {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			manifestDir = wd
		}
	}

	cfg := &Config{
		Features:    plan.Features{Snappy: true, Vendor: true},
		ManifestDir: manifestDir,
		VendorRoot:  filepath.Join(manifestDir, VendorDir),
		Jobs:        runtime.NumCPU(),
		Format:      "cargo",
	}

	if dir, cargo := lookup("CARGO_MANIFEST_DIR"); cargo && dir != "" {
		_, cfg.Features.Snappy = lookup("CARGO_FEATURE_SNAPPY")
		_, cfg.Features.Vendor = lookup("CARGO_FEATURE_VENDOR")
	}
	var err error
	if cfg.Features.Snappy, err = boolVar(lookup, "LEVELDB_SNAPPY", cfg.Features.Snappy); err != nil {
		return nil, err
	}
	if cfg.Features.Vendor, err = boolVar(lookup, "LEVELDB_VENDOR", cfg.Features.Vendor); err != nil {
		return nil, err
	}

	cfg.Target = target.Host().Raw
	if v, ok := lookup("TARGET"); ok && v != "" {
		cfg.Target = v
	}

	if v, ok := lookup("OUT_DIR"); ok && v != "" {
		cfg.OutDir = v
	} else {
		dir, err := env.WorkDir()
		if err != nil {
			return nil, err
		}
		cfg.OutDir = dir
	}

	if v, ok := lookup("NUM_JOBS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("NUM_JOBS: invalid job count %q", v)
		}
		cfg.Jobs = n
	}

	if v, ok := lookup("LEVELDB_DIRECTIVE_FORMAT"); ok && v != "" {
		cfg.Format = v
	}
	return cfg, nil
}

func boolVar(lookup Lookup, key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// LoadPins reads the first versions file found under the vendor root and
// merges it over the built-in pins. Without a file the defaults are used.
func (c *Config) LoadPins() error {
	pins := versions.Default()
	for _, name := range versionFiles {
		file := filepath.Join(c.VendorRoot, name)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		v, err := versions.Parse(file, nil)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", file, err)
		}
		pins = pins.Merge(v)
		break
	}
	if err := pins.Validate(); err != nil {
		return err
	}
	c.Pins = pins
	return nil
}

// Validate checks the settings the pipeline relies on.
func (c *Config) Validate() error {
	if c.Features.Vendor && c.OutDir == "" {
		return errors.New("no output directory: set OUT_DIR or --out-dir")
	}
	if c.Jobs <= 0 {
		return fmt.Errorf("invalid job count %d", c.Jobs)
	}
	return nil
}
