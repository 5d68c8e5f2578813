package safety

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern  = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	digitsPattern = regexp.MustCompile(`\d{5,}`)
)

// ScrubPII masks email addresses, phone numbers and long digit runs.
func ScrubPII(text string) string {
	scrubbed := emailPattern.ReplaceAllString(text, "[email]")
	scrubbed = phonePattern.ReplaceAllString(scrubbed, "[phone]")
	return digitsPattern.ReplaceAllString(scrubbed, "[number]")
}

// Excerpt collapses whitespace and truncates text to at most limit runes.
func Excerpt(text string, limit int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:limit]) + "..."
}
