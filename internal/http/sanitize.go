package httpapi

import (
	"strings"
	"unicode/utf8"
)

const (
	minMessageLength = 1
	maxMessageLength = 5000
)

// sanitizeString removes null bytes and control characters (newlines and
// tabs survive) and drops invalid UTF-8.
func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeHTML escapes markup metacharacters for text echoed back to clients.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&#x27;")
	return s
}

func validLength(s string, min, max int) bool {
	l := utf8.RuneCountInString(s)
	return l >= min && l <= max
}

// injectionMarkers are logged, not blocked: keyword matching over Excel
// questions produces too many legitimate hits (e.g. "delete rows") to
// reject outright.
var injectionMarkers = []string{"<script", "javascript:", "onerror=", "onload=", "../", "' or 1=1"}

func looksLikeInjection(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range injectionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
