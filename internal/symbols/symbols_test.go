package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionValidate(t *testing.T) {
	t.Run("valid definition passes", func(t *testing.T) {
		d := &Definition{QualifiedName: "pkg.Foo", File: "pkg/a.py", StartLine: 3}
		require.NoError(t, d.Validate())
	})

	t.Run("missing qualified name rejected", func(t *testing.T) {
		d := &Definition{File: "pkg/a.py", StartLine: 3}
		err := d.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})

	t.Run("missing file rejected", func(t *testing.T) {
		d := &Definition{QualifiedName: "pkg.Foo", StartLine: 3}
		require.Error(t, d.Validate())
	})

	t.Run("non-positive line rejected", func(t *testing.T) {
		d := &Definition{QualifiedName: "pkg.Foo", File: "pkg/a.py", StartLine: 0}
		require.Error(t, d.Validate())
	})
}

func TestDefinitionID(t *testing.T) {
	d := &Definition{QualifiedName: "pkg.Foo", File: "pkg/a.py", StartLine: 3}
	assert.Equal(t, "pkg/a.py:3:pkg.Foo", d.ID())
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityWarn.Rank())
	assert.Greater(t, SeverityWarn.Rank(), SeverityInfo.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())
}

func TestFileLineAndIgnored(t *testing.T) {
	f := &File{SourceLines: []string{"a", "b", "c"}, Ignored: map[int]bool{2: true}}
	assert.Equal(t, "a", f.Line(1))
	assert.Equal(t, "", f.Line(0))
	assert.Equal(t, "", f.Line(99))
	assert.True(t, f.IsIgnored(2))
	assert.False(t, f.IsIgnored(1))

	var nilFile *File
	assert.Equal(t, "", nilFile.Line(1))
	assert.False(t, nilFile.IsIgnored(1))
}
