package shared

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every HTML element. bluemonday policies are safe for
// concurrent use once built.
var strictPolicy = bluemonday.StrictPolicy()

// maxUnescapeRounds bounds how many layers of entity encoding are peeled
// off before the escaped form is kept.
const maxUnescapeRounds = 4

// SanitizeText removes markup from user supplied free text and trims
// surrounding whitespace. Responses are JSON, so entities are returned as
// plain characters; text is sanitized again after every unescape until it
// no longer changes, which keeps entity-encoded tags from reappearing.
// Input still changing after maxUnescapeRounds keeps its escaped form.
func SanitizeText(s string) string {
	for range maxUnescapeRounds {
		clean := strictPolicy.Sanitize(s)
		plain := html.UnescapeString(clean)
		if plain == s {
			return strings.TrimSpace(plain)
		}
		s = plain
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeOptional sanitizes *s. A nil pointer, or text that is empty after
// sanitizing, yields nil.
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
