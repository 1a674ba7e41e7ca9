// Package link computes and prints the linker directives the host build
// needs to link against leveldb.
package link

import (
	"github.com/goplus/leveldb-build/internal/plan"
)

// Kind is the type of a Directive.
type Kind int

const (
	SearchPath Kind = iota // add a native library search path
	Library                // link a library
	Runtime                // link the C++ runtime
)

func (k Kind) String() string {
	switch k {
	case SearchPath:
		return "search-path"
	case Library:
		return "link-lib"
	case Runtime:
		return "link-runtime"
	}
	return "unknown"
}

// Directive is one instruction for the host build.
type Directive struct {
	Kind   Kind
	Value  string
	Static bool
}

// Directives returns the directives for p in link order. For vendored
// builds each library is preceded by the search path of libDir; system
// builds link by name only. The C++ runtime comes last and is omitted for
// targets whose runtime is unknown.
func Directives(p *plan.Plan, libDir string) []Directive {
	var out []Directive
	for _, lib := range p.Libraries() {
		if p.Vendor {
			out = append(out,
				Directive{Kind: SearchPath, Value: libDir},
				Directive{Kind: Library, Value: lib, Static: true},
			)
			continue
		}
		out = append(out, Directive{Kind: Library, Value: lib})
	}
	if rt, ok := p.Target.CxxRuntime(); ok {
		out = append(out, Directive{Kind: Runtime, Value: rt.Name, Static: rt.Static})
	}
	return out
}
