package httpapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStringStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "hello world", sanitizeString("hello\x00 world"))
	assert.Equal(t, "line1\nline2\ttabbed", sanitizeString("line1\nline2\ttabbed"))
	assert.Equal(t, "ab", sanitizeString("a\x1bb"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", escapeHTML("<script>alert(1)</script>"))
}

func TestValidLengthCountsRunes(t *testing.T) {
	assert.True(t, validLength("エクセル", 1, 4))
	assert.False(t, validLength("エクセル", 5, 10))
	assert.False(t, validLength("", 1, 10))
	assert.False(t, validLength(strings.Repeat("a", 11), 1, 10))
}

func TestLooksLikeInjection(t *testing.T) {
	assert.True(t, looksLikeInjection("<script>alert(1)</script>"))
	assert.True(t, looksLikeInjection("../../etc/passwd"))
	assert.False(t, looksLikeInjection("how to use SUM"))
}
