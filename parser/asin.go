package parser

import "regexp"

var asinPattern = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

// ASIN returns the catalog code embedded in a /dp/<code> path segment, or "".
func ASIN(sourceURL string) string {
	m := asinPattern.FindStringSubmatch(sourceURL)
	if m == nil {
		return ""
	}
	return m[1]
}
