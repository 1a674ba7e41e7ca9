// Package plan turns feature toggles and a target triple into the ordered
// list of native builds to perform.
package plan

import (
	"github.com/goplus/leveldb-build/pkgs/mod/module"
	"github.com/goplus/leveldb-build/pkgs/mod/versions"
	"github.com/goplus/leveldb-build/pkgs/target"
)

// Dependency names, also used as library names.
const (
	Snappy  = "snappy"
	LevelDB = "leveldb"
)

// Features are the user-facing toggles.
type Features struct {
	Snappy bool `yaml:"snappy"`
	Vendor bool `yaml:"vendor"`
}

// Step is one vendored dependency build.
type Step struct {
	Dep   module.Version     `yaml:"dep"`
	Build versions.BuildKind `yaml:"build"`
}

// Plan is the resolved build. It is not modified after Resolve returns.
type Plan struct {
	Snappy         bool          `yaml:"snappy"`
	Vendor         bool          `yaml:"vendor"`
	Target         target.Triple `yaml:"-"`
	TargetTriple   string        `yaml:"target"`
	SnappyVersion  string        `yaml:"snappy_version"`
	LevelDBVersion string        `yaml:"leveldb_version"`

	// Steps lists the source builds in dependency order: snappy (when
	// enabled) strictly before leveldb. Empty when Vendor is false.
	Steps []Step `yaml:"steps"`

	// PatchDetect is set when leveldb is built with make and snappy is
	// disabled, so its detection script must be neutralized.
	PatchDetect bool `yaml:"patch_detect"`
}

// Resolve builds the plan. It does no I/O and accepts every combination of
// toggles and any triple. Pins missing from the table fall back to the
// built-in defaults.
func Resolve(f Features, triple string, pins *versions.Versions) *Plan {
	table := versions.Default().Merge(pins)
	snappyMod, snappyBuild, _ := table.Lookup(Snappy)
	leveldbMod, leveldbBuild, _ := table.Lookup(LevelDB)

	p := &Plan{
		Snappy:         f.Snappy,
		Vendor:         f.Vendor,
		Target:         target.Parse(triple),
		TargetTriple:   triple,
		SnappyVersion:  snappyMod.Version,
		LevelDBVersion: leveldbMod.Version,
	}
	if !f.Vendor {
		return p
	}
	if f.Snappy {
		p.Steps = append(p.Steps, Step{Dep: snappyMod, Build: snappyBuild})
	}
	p.Steps = append(p.Steps, Step{Dep: leveldbMod, Build: leveldbBuild})
	p.PatchDetect = !f.Snappy && leveldbBuild == versions.Make
	return p
}

// Libraries returns the libraries to link, in link order: snappy first
// when enabled, then leveldb.
func (p *Plan) Libraries() []string {
	if p.Snappy {
		return []string{Snappy, LevelDB}
	}
	return []string{LevelDB}
}
