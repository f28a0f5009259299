package httputil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeText trims free text typed by staff and strips control characters
// other than newline and tab. The result is stored verbatim and JSON encoded
// on output, so it is not HTML escaped.
func SanitizeText(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(cleaned)
}

// ValidateTextLength validates that value has at most max characters.
func ValidateTextLength(field, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must be at most %d characters long", field, max)
	}
	return nil
}
