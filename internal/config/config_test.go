package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/goplus/leveldb-build/pkgs/mod/versions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := FromLookup(dir, mapLookup(map[string]string{"OUT_DIR": "/tmp/out"}))
	require.NoError(t, err)

	assert.True(t, cfg.Features.Snappy)
	assert.True(t, cfg.Features.Vendor)
	assert.Equal(t, filepath.Join(dir, VendorDir), cfg.VendorRoot)
	assert.Equal(t, "/tmp/out", cfg.OutDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Jobs)
	assert.Equal(t, "cargo", cfg.Format)
	assert.NotEmpty(t, cfg.Target)
	assert.NoError(t, cfg.Validate())
}

func TestToggles(t *testing.T) {
	cfg, err := FromLookup(t.TempDir(), mapLookup(map[string]string{
		"OUT_DIR":        "/tmp/out",
		"LEVELDB_SNAPPY": "false",
		"LEVELDB_VENDOR": "0",
		"TARGET":         "x86_64-unknown-linux-musl",
		"NUM_JOBS":       "3",
	}))
	require.NoError(t, err)
	assert.False(t, cfg.Features.Snappy)
	assert.False(t, cfg.Features.Vendor)
	assert.Equal(t, "x86_64-unknown-linux-musl", cfg.Target)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestCargoFeatures(t *testing.T) {
	manifest := t.TempDir()
	cfg, err := FromLookup("", mapLookup(map[string]string{
		"CARGO_MANIFEST_DIR":   manifest,
		"CARGO_FEATURE_VENDOR": "1",
		"OUT_DIR":              "/tmp/out",
	}))
	require.NoError(t, err)
	assert.Equal(t, manifest, cfg.ManifestDir)
	assert.False(t, cfg.Features.Snappy)
	assert.True(t, cfg.Features.Vendor)
}

func TestInvalidValues(t *testing.T) {
	_, err := FromLookup(t.TempDir(), mapLookup(map[string]string{"LEVELDB_SNAPPY": "maybe"}))
	assert.ErrorContains(t, err, "LEVELDB_SNAPPY")

	_, err = FromLookup(t.TempDir(), mapLookup(map[string]string{"NUM_JOBS": "-2"}))
	assert.ErrorContains(t, err, "NUM_JOBS")
}

func TestValidateOutDir(t *testing.T) {
	cfg := &Config{Jobs: 1}
	cfg.Features.Vendor = true
	assert.Error(t, cfg.Validate())

	cfg.Features.Vendor = false
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEVELDB_SNAPPY=false\nOUT_DIR=/from/dotenv\n"), 0o644))
	t.Setenv("OUT_DIR", "/from/env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.Features.Snappy)
	assert.Equal(t, "/from/env", cfg.OutDir)
	_, set := os.LookupEnv("LEVELDB_SNAPPY")
	assert.False(t, set, ".env must not leak into the process environment")
}

func TestLoadPins(t *testing.T) {
	cfg := &Config{VendorRoot: t.TempDir()}
	require.NoError(t, cfg.LoadPins())
	assert.Equal(t, versions.Default(), cfg.Pins)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.VendorRoot, "versions.yaml"), []byte("deps:\n  leveldb:\n    version: \"1.20\"\n    build: make\n"), 0o644))
	require.NoError(t, cfg.LoadPins())
	assert.Equal(t, versions.Pin{Version: "1.20", Build: versions.Make}, cfg.Pins.Deps["leveldb"])
	assert.Equal(t, "1.1.7", cfg.Pins.Deps["snappy"].Version)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.VendorRoot, "versions.yaml"), []byte("deps:\n  leveldb:\n    version: latest\n"), 0o644))
	assert.Error(t, cfg.LoadPins())
}
