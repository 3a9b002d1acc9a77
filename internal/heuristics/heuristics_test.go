package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func TestGetFrameworkConfigLoadsEmbedded(t *testing.T) {
	ResetFrameworkConfig()
	cfg, err := GetFrameworkConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Frameworks)
}

func TestLoadFrameworkConfigRejectsEmpty(t *testing.T) {
	_, err := LoadFrameworkConfig([]byte("frameworks: []"))
	assert.Error(t, err)
}

func TestLoadFrameworkConfigRejectsMissingBooster(t *testing.T) {
	_, err := LoadFrameworkConfig([]byte(`
frameworks:
  - name: test
    patterns: ["foo"]
    booster: 0
`))
	assert.Error(t, err)
}

func TestMatcherMatchesRegisteredDecorator(t *testing.T) {
	ResetFrameworkConfig()
	m, err := NewMatcher()
	require.NoError(t, err)

	booster, ok := m.Match([]string{"app.route"})
	assert.True(t, ok)
	assert.Equal(t, 30, booster)

	_, ok = m.Match([]string{"unrelated_decorator"})
	assert.False(t, ok)
}

func TestIsTestHelperName(t *testing.T) {
	assert.True(t, IsTestHelperName("test_something"))
	assert.True(t, IsTestHelperName("setUp"))
	assert.True(t, IsTestHelperName("TestFoo"))
	assert.False(t, IsTestHelperName("helper"))
}

func TestApplyRootsExportsAndDunders(t *testing.T) {
	defs := []*symbols.Definition{
		{QualifiedName: "pkg.Exported", Name: "Exported", Kind: symbols.KindFunction, File: "pkg.py", Exported: true, StartLine: 1},
		{QualifiedName: "pkg.Cls.__init__", Name: "__init__", Kind: symbols.KindMethod, File: "pkg.py", StartLine: 2},
		{QualifiedName: "pkg.handler", Name: "handler", Kind: symbols.KindFunction, File: "pkg.py",
			Decorators: []string{"app.route"}, StartLine: 3},
		{QualifiedName: "pkg.unused", Name: "unused", Kind: symbols.KindFunction, File: "pkg.py", StartLine: 4},
	}

	res, err := Apply(Options{IncludeTests: true}, defs, map[string]*symbols.File{}, nil)
	require.NoError(t, err)

	assert.True(t, res.RootSet["pkg.Exported"])
	assert.True(t, res.RootSet["pkg.Cls.__init__"])
	assert.True(t, res.RootSet["pkg.handler"])
	assert.Equal(t, 30, res.Boosters["pkg.handler"])
	assert.False(t, res.RootSet["pkg.unused"])
}

func TestApplyRootsGoMainFunction(t *testing.T) {
	defs := []*symbols.Definition{
		{QualifiedName: "main.main", Name: "main", Kind: symbols.KindFunction, File: "main.go",
			Language: symbols.LanguageGo, Package: "main", StartLine: 1},
	}
	res, err := Apply(Options{}, defs, map[string]*symbols.File{}, nil)
	require.NoError(t, err)
	assert.True(t, res.RootSet["main.main"])
}

func TestApplyRootsTestHelpersOnlyInTestFiles(t *testing.T) {
	defs := []*symbols.Definition{
		{QualifiedName: "pkg.test_foo", Name: "test_foo", Kind: symbols.KindFunction, File: "test_pkg.py", StartLine: 1},
	}
	files := map[string]*symbols.File{
		"test_pkg.py": {Path: "test_pkg.py", IsTest: true},
	}

	res, err := Apply(Options{IncludeTests: true}, defs, files, nil)
	require.NoError(t, err)
	assert.True(t, res.RootSet["pkg.test_foo"])

	res, err = Apply(Options{IncludeTests: false}, defs, files, nil)
	require.NoError(t, err)
	assert.False(t, res.RootSet["pkg.test_foo"])
}

func TestApplyProducesSyntheticReferencesFromMainEntry(t *testing.T) {
	res, err := Apply(Options{}, nil, map[string]*symbols.File{}, map[string][]string{
		"pkg.cli": {"run"},
	})
	require.NoError(t, err)
	require.Len(t, res.Synthetic, 2)
	names := []string{res.Synthetic[0].Name, res.Synthetic[1].Name}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "pkg.cli.run")
}

func TestMainEntryCaller(t *testing.T) {
	assert.Equal(t, "pkg.cli.__main_entry__", MainEntryCaller("pkg.cli"))
}
