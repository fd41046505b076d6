package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestTruncate_BacksOffToRuneBoundary(t *testing.T) {
	// "é" is two bytes; a cut at 4 would land mid-rune.
	s := "caféteria"

	out := Truncate(s, 4)

	assert.Equal(t, "caf", out)
	assert.True(t, utf8.ValidString(out))
}

func TestTruncate_LongMultiByteBody(t *testing.T) {
	s := strings.Repeat("日", 100)

	out := Truncate(s, 50)

	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), 50)
	assert.Equal(t, 48, len(out))
}
