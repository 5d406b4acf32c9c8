package parser

import (
	"regexp"
	"strings"
)

var ratingPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// NormalizeRating returns the first integer or decimal token in raw.
func NormalizeRating(raw string) string {
	return ratingPattern.FindString(raw)
}

// NormalizeReviewCount keeps only digits and thousands separators. It returns
// "" when raw contains no digit at all.
func NormalizeReviewCount(raw string) string {
	var b strings.Builder
	hasDigit := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == ',':
			b.WriteRune(r)
		}
	}
	if !hasDigit {
		return ""
	}
	return b.String()
}

// Truncate keeps the first limit characters of text.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
