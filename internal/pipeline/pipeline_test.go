package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/leveldb-build/internal/deps"
	"github.com/goplus/leveldb-build/internal/install"
	"github.com/goplus/leveldb-build/internal/link"
	"github.com/goplus/leveldb-build/internal/patch"
	"github.com/goplus/leveldb-build/internal/plan"
	"github.com/goplus/leveldb-build/internal/runner"
	"github.com/goplus/leveldb-build/pkgs/mod/versions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxGNU = "x86_64-unknown-linux-gnu"

// fakeRunner records invocations in order and produces the files a real
// build would leave behind.
type fakeRunner struct {
	t      *testing.T
	outDir string
	fail   map[string]int
	skip   map[string]bool // steps that "succeed" without producing output
	calls  []runner.Invocation
}

func (f *fakeRunner) Run(inv runner.Invocation) (*runner.Result, error) {
	f.calls = append(f.calls, inv)
	if code, ok := f.fail[inv.Step]; ok {
		return nil, &runner.BuildStepFailed{Step: inv.Step, ExitStatus: code, Output: []byte("error: boom\n")}
	}
	if f.skip[inv.Step] {
		return &runner.Result{}, nil
	}
	switch inv.Step {
	case "snappy/install":
		f.touch(filepath.Join(f.outDir, "lib", "libsnappy.a"))
		f.touch(filepath.Join(f.outDir, "include", "snappy.h"))
	case "leveldb/install":
		f.touch(filepath.Join(f.outDir, "lib", "libleveldb.a"))
	case "leveldb/build":
		if inv.Bin == "make" {
			f.touch(filepath.Join(inv.Dir, filepath.FromSlash(inv.Args[0])))
		}
	}
	return &runner.Result{}, nil
}

func (f *fakeRunner) touch(path string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte("!<arch>\n"), 0o644))
}

func (f *fakeRunner) steps() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.Step)
	}
	return out
}

func (f *fakeRunner) call(step string) *runner.Invocation {
	for i := range f.calls {
		if f.calls[i].Step == step {
			return &f.calls[i]
		}
	}
	return nil
}

func setup(t *testing.T, dirs ...string) (Options, *fakeRunner) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "deps")
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	out := filepath.Join(t.TempDir(), "out")
	fr := &fakeRunner{t: t, outDir: out}
	return Options{
		Features:   plan.Features{Snappy: true, Vendor: true},
		Target:     linuxGNU,
		VendorRoot: root,
		OutDir:     out,
		Jobs:       3,
		Runner:     fr,
	}, fr
}

func TestRunEndToEnd(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.22")

	res, err := Run(opts)
	require.NoError(t, err)

	libDir := filepath.Join(opts.OutDir, "lib")
	assert.Equal(t, []link.Directive{
		{Kind: link.SearchPath, Value: libDir},
		{Kind: link.Library, Value: "snappy", Static: true},
		{Kind: link.SearchPath, Value: libDir},
		{Kind: link.Library, Value: "leveldb", Static: true},
		{Kind: link.Runtime, Value: "stdc++"},
	}, res.Directives)
	assert.Equal(t, []string{
		filepath.Join(libDir, "libsnappy.a"),
		filepath.Join(libDir, "libleveldb.a"),
	}, res.Artifacts)
	assert.Equal(t, libDir, res.LibDir)
	assert.Len(t, fr.calls, 6)
}

func TestRunSnappyBeforeLevelDB(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.22")

	_, err := Run(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"snappy/configure", "snappy/build", "snappy/install",
		"leveldb/configure", "leveldb/build", "leveldb/install",
	}, fr.steps())

	cfg := fr.call("leveldb/configure")
	require.NotNil(t, cfg)
	assert.Equal(t, "-L"+filepath.Join(opts.OutDir, "lib"), cfg.Env["LDFLAGS"])
	assert.Contains(t, cfg.Env["CXXFLAGS"], "-I"+filepath.Join(opts.OutDir, "include"))
	assert.Contains(t, cfg.Env["CXXFLAGS"], "-fPIC")
	assert.Equal(t, "3", cfg.Env["NUM_JOBS"])
	assert.Contains(t, cfg.Args, "-DHAVE_SNAPPY:BOOL=ON")
	assert.Contains(t, cfg.Args, "-DCMAKE_INSTALL_LIBDIR:PATH="+filepath.Join(opts.OutDir, "lib"))

	snappyCfg := fr.call("snappy/configure")
	require.NotNil(t, snappyCfg)
	assert.Empty(t, snappyCfg.Env["LDFLAGS"], "snappy gets no snappy flags")
	assert.Contains(t, snappyCfg.Args, "-DBUILD_SHARED_LIBS:BOOL=OFF")
	assert.Contains(t, snappyCfg.Args, "-DHAVE_LIBZ:BOOL=OFF")
}

func TestRunWithoutSnappy(t *testing.T) {
	opts, fr := setup(t, "leveldb-1.22")
	opts.Features.Snappy = false

	res, err := Run(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"leveldb/configure", "leveldb/build", "leveldb/install"}, fr.steps())
	cfg := fr.call("leveldb/configure")
	assert.Contains(t, cfg.Args, "-DHAVE_SNAPPY:BOOL=OFF")
	assert.NotContains(t, cfg.Env, "LDFLAGS")
	assert.NotContains(t, cfg.Env, "CXXFLAGS")
	assert.Equal(t, []string{"leveldb"}, libraries(res.Directives))
}

func TestRunSystemLibraries(t *testing.T) {
	opts, fr := setup(t)
	opts.Features.Vendor = false
	opts.OutDir = `/bad"path`

	res, err := Run(opts)
	require.NoError(t, err)
	assert.Empty(t, fr.calls)
	assert.Equal(t, []link.Directive{
		{Kind: link.Library, Value: "snappy"},
		{Kind: link.Library, Value: "leveldb"},
		{Kind: link.Runtime, Value: "stdc++"},
	}, res.Directives)
}

func TestRunLevelDBFailureAborts(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.22")
	fr.fail = map[string]int{"leveldb/build": 2}

	res, err := Run(opts)
	assert.Nil(t, res)

	var failed *runner.BuildStepFailed
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, "leveldb/build", failed.Step)
	assert.Equal(t, 2, failed.ExitStatus)
	assert.Contains(t, err.Error(), "leveldb")

	assert.Nil(t, fr.call("leveldb/install"))
	_, statErr := os.Stat(filepath.Join(opts.OutDir, "lib", "libleveldb.a"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunMissingSource(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.20")

	_, err := Run(opts)
	var missing *deps.MissingSourceError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, filepath.Join(opts.VendorRoot, "leveldb-1.22"), missing.Dir)
	assert.Equal(t, []string{"1.20"}, missing.Available)
	assert.Equal(t, []string{"snappy/configure", "snappy/build", "snappy/install"}, fr.steps())
}

func TestRunArtifactMissing(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.22")
	fr.skip = map[string]bool{"snappy/install": true}

	_, err := Run(opts)
	var missing *install.ArtifactMissingError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "snappy", missing.Dep)
	assert.Nil(t, fr.call("leveldb/configure"))
}

func TestRunUnsupportedPath(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.22")
	opts.OutDir = filepath.Join(t.TempDir(), `we"ird`)

	_, err := Run(opts)
	var bad *UnsupportedPathError
	require.True(t, errors.As(err, &bad), "got %v", err)
	assert.Empty(t, fr.calls)
}

func TestRunLegacyMakeWithoutSnappy(t *testing.T) {
	opts, fr := setup(t, "leveldb-1.20")
	opts.Features.Snappy = false
	opts.Pins = &versions.Versions{Deps: map[string]versions.Pin{
		"leveldb": {Version: "1.20", Build: versions.Make},
	}}

	src := filepath.Join(opts.VendorRoot, "leveldb-1.20")
	template, err := os.ReadFile(filepath.Join("..", "patch", "testdata", patch.DetectScript))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, patch.DetectScript), template, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "include", "leveldb"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "include", "leveldb", "db.h"), []byte("// db"), 0o644))

	res, err := Run(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"leveldb/build"}, fr.steps())
	build := fr.call("leveldb/build")
	work := filepath.Join(opts.OutDir, "build", "leveldb-1.20")
	assert.Equal(t, work, build.Dir)
	assert.Equal(t, "make", build.Bin)
	assert.Equal(t, []string{"out-static/libleveldb.a"}, build.Args)

	patched, err := os.ReadFile(filepath.Join(work, patch.DetectScript))
	require.NoError(t, err)
	assert.NotContains(t, string(patched), "-lsnappy")
	assert.Equal(t, strings.Count(string(template), "\n"), strings.Count(string(patched), "\n"))

	original, err := os.ReadFile(filepath.Join(src, patch.DetectScript))
	require.NoError(t, err)
	assert.Equal(t, template, original)

	assert.Equal(t, []string{filepath.Join(opts.OutDir, "lib", "libleveldb.a")}, res.Artifacts)
	_, err = os.Stat(filepath.Join(opts.OutDir, "include", "leveldb", "db.h"))
	assert.NoError(t, err)
	assert.True(t, res.Plan.PatchDetect)
}

func TestRunLegacyMakeWithSnappy(t *testing.T) {
	opts, fr := setup(t, "snappy-1.1.7", "leveldb-1.20")
	opts.Pins = &versions.Versions{Deps: map[string]versions.Pin{
		"snappy":  {Version: "1.1.7", Build: versions.Make},
		"leveldb": {Version: "1.20", Build: versions.Make},
	}}
	src := filepath.Join(opts.VendorRoot, "leveldb-1.20")
	require.NoError(t, os.WriteFile(filepath.Join(src, patch.DetectScript), []byte("#!/bin/sh\nPLATFORM_LIBS=\"$PLATFORM_LIBS -lsnappy\"\n"), 0o644))

	_, err := Run(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"snappy/configure", "snappy/build", "snappy/install", "leveldb/build"}, fr.steps())
	cfg := fr.call("snappy/configure")
	assert.Contains(t, cfg.Args, "--libdir="+filepath.Join(opts.OutDir, "lib"))

	build := fr.call("leveldb/build")
	assert.Equal(t, "-L"+filepath.Join(opts.OutDir, "lib"), build.Env["LDFLAGS"])

	script, err := os.ReadFile(filepath.Join(opts.OutDir, "build", "leveldb-1.20", patch.DetectScript))
	require.NoError(t, err)
	assert.Contains(t, string(script), "-lsnappy", "snappy enabled keeps the script verbatim")
}

func libraries(ds []link.Directive) []string {
	var out []string
	for _, d := range ds {
		if d.Kind == link.Library {
			out = append(out, d.Value)
		}
	}
	return out
}
