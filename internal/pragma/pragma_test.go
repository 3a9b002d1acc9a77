package pragma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	lines := []string{
		"def foo():",
		"    return unused_helper()  # pragma: no skylos",
		"def bar():",
		"    x = 1  # noqa",
		"def baz():",
		"    pass",
	}
	ignored := Scan(lines)
	assert.True(t, ignored[2])
	assert.True(t, ignored[4])
	assert.False(t, ignored[6])
	assert.Len(t, ignored, 2)
}

func TestScanReturnsNilWhenNoMarkers(t *testing.T) {
	assert.Nil(t, Scan([]string{"a", "b", "c"}))
}

func TestIsIgnored(t *testing.T) {
	lines := []string{"a", "b  # pragma: no cover", "c"}
	assert.False(t, IsIgnored(lines, 1))
	assert.True(t, IsIgnored(lines, 2))
	assert.False(t, IsIgnored(lines, 0))
	assert.False(t, IsIgnored(lines, 99))
}

func TestHasMarkerCaseInsensitive(t *testing.T) {
	assert.True(t, hasMarker("x = 1  # NOQA"))
	assert.True(t, hasMarker("y = 2  # Pragma: No Skylos"))
	assert.False(t, hasMarker("z = 3"))
}
