package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylos-dev/skylos/internal/index"
	"github.com/skylos-dev/skylos/internal/symbols"
)

func indexOf(t *testing.T, defs ...*symbols.Definition) *index.SymbolIndex {
	t.Helper()
	idx := index.NewSymbolIndex()
	require.NoError(t, idx.AddBatch(defs))
	return idx
}

func TestResolveMarksRootsLive(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "pkg.Exported", Name: "Exported", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 1},
		&symbols.Definition{QualifiedName: "pkg.Unused", Name: "Unused", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 5},
	)
	res := Resolve(Input{
		Index:   idx,
		RootSet: map[string]bool{"pkg.Exported": true},
	})
	assert.True(t, res.Live["pkg.Exported"])
	assert.False(t, res.Live["pkg.Unused"])
}

func TestResolveCallPairReachability(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "pkg.main", Name: "main", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 1},
		&symbols.Definition{QualifiedName: "pkg.helper", Name: "helper", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 5},
		&symbols.Definition{QualifiedName: "pkg.orphan", Name: "orphan", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 9},
	)
	res := Resolve(Input{
		Index: idx,
		CallPairs: []*symbols.CallPair{
			{CallerQualified: "pkg.main", CalleeQualified: "pkg.helper", File: "pkg.py", Line: 2},
		},
		RootSet: map[string]bool{"pkg.main": true},
	})
	assert.True(t, res.Live["pkg.main"])
	assert.True(t, res.Live["pkg.helper"])
	assert.True(t, res.CalledAsCallee["pkg.helper"])
	assert.False(t, res.Live["pkg.orphan"])
}

func TestResolveReferenceMarksTargetLive(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "pkg.target", Name: "target", File: "pkg.py", Kind: symbols.KindFunction, StartLine: 1},
	)
	res := Resolve(Input{
		Index:      idx,
		References: []*symbols.Reference{{Name: "target", File: "pkg.py", Line: 10}},
	})
	assert.True(t, res.Live["pkg.target"])
}

func TestResolveImportAliasRewrite(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "pkg.sub.Helper", Name: "Helper", File: "pkg/sub.py", Kind: symbols.KindFunction, StartLine: 1},
	)
	res := Resolve(Input{
		Index:      idx,
		References: []*symbols.Reference{{Name: "sub.Helper", File: "use.py", Line: 3}},
		ImportMaps: map[string]symbols.ImportMap{
			"use.py": {"sub": "pkg.sub"},
		},
	})
	assert.True(t, res.Live["pkg.sub.Helper"])
}

func TestResolveAmbiguousReferenceMarksAllCandidatesLive(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "pkg.a.process", Name: "process", File: "a.py", Kind: symbols.KindFunction, StartLine: 1},
		&symbols.Definition{QualifiedName: "pkg.b.process", Name: "process", File: "b.py", Kind: symbols.KindFunction, StartLine: 1},
	)
	res := Resolve(Input{
		Index:      idx,
		References: []*symbols.Reference{{Name: "process", File: "caller.py", Line: 1}},
	})
	assert.True(t, res.Live["pkg.a.process"])
	assert.True(t, res.Live["pkg.b.process"])
	assert.Equal(t, 1, res.AmbiguousCount)
}

func TestResolveSameModuleUniqueNamePrefersLocalMatch(t *testing.T) {
	idx := indexOf(t,
		&symbols.Definition{QualifiedName: "local.helper", Name: "helper", File: "local.py", Kind: symbols.KindFunction, StartLine: 1},
		&symbols.Definition{QualifiedName: "other.helper", Name: "helper", File: "other.py", Kind: symbols.KindFunction, StartLine: 1},
	)
	res := Resolve(Input{
		Index:      idx,
		References: []*symbols.Reference{{Name: "helper", File: "local.py", Line: 2}},
	})
	assert.True(t, res.Live["local.helper"])
	assert.False(t, res.Live["other.helper"])
	assert.Equal(t, 0, res.AmbiguousCount)
}

func TestResolveNilIndexIsEmpty(t *testing.T) {
	res := Resolve(Input{
		References: []*symbols.Reference{{Name: "getattr_only_call", File: "pkg.py", Line: 1}},
	})
	assert.NotNil(t, res.Live)
	assert.Equal(t, 0, res.AmbiguousCount)
}
