package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all markup from s and trims surrounding whitespace.
// Entities escaped by the policy are decoded again so plain text round-trips.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
