package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func TestScorePragmaTerminatesAtZero(t *testing.T) {
	def := &symbols.Definition{Name: "foo"}
	assert.Equal(t, 0, Score(def, Signals{IsPragmaIgnored: true, IsCalledAsCallee: false}))
}

func TestScoreBaseline(t *testing.T) {
	def := &symbols.Definition{Name: "orphan"}
	assert.Equal(t, 100, Score(def, Signals{}))
}

func TestScoreExportedPenalty(t *testing.T) {
	def := &symbols.Definition{Name: "Exported", Exported: true}
	assert.Equal(t, 60, Score(def, Signals{}))
}

func TestScoreCalledAsCalleePenalty(t *testing.T) {
	def := &symbols.Definition{Name: "helper"}
	assert.Equal(t, 40, Score(def, Signals{IsCalledAsCallee: true}))
}

func TestScoreUnderscorePrefixButNotDunder(t *testing.T) {
	def := &symbols.Definition{Name: "_private"}
	assert.Equal(t, 95, Score(def, Signals{}))

	dunder := &symbols.Definition{Name: "__init__"}
	assert.Equal(t, 100, Score(dunder, Signals{}))
}

func TestScoreTestHelperPenaltyOnlyInTestFiles(t *testing.T) {
	def := &symbols.Definition{Name: "test_something"}
	assert.Equal(t, 70, Score(def, Signals{IsInTestFile: true}))

	// A production symbol that merely looks like a test helper keeps full
	// confidence and stays reportable.
	assert.Equal(t, 100, Score(def, Signals{}))
}

func TestScoreClampsAtZero(t *testing.T) {
	def := &symbols.Definition{Name: "_x", Exported: true}
	score := Score(def, Signals{
		FrameworkBoosted:  true,
		IsCalledAsCallee:  true,
		IsDynamicallyUsed: true,
		IsDunderOnlyClass: true,
	})
	assert.Equal(t, 0, score)
}

func TestScoreGoExportedOnlyPenalty(t *testing.T) {
	def := &symbols.Definition{Name: "Foo", Language: symbols.LanguageGo}
	assert.Equal(t, 60, Score(def, Signals{ReportedByGoEngineExportedOnly: true}))
}

func TestDunderOnlyClass(t *testing.T) {
	assert.True(t, DunderOnlyClass([]*symbols.Definition{
		{Name: "__init__"}, {Name: "__repr__"},
	}))
	assert.False(t, DunderOnlyClass([]*symbols.Definition{
		{Name: "__init__"}, {Name: "helper"},
	}))
	assert.False(t, DunderOnlyClass(nil))
}
