// Package sanitize cleans user supplied text before it is stored or echoed back.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	rich   = bluemonday.UGCPolicy()
)

// Text strips every tag and collapses surrounding whitespace. Entities produced by
// the policy are unescaped so plain text round-trips unchanged.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// RichText keeps a conservative subset of formatting markup.
func RichText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(rich.Sanitize(s))
}
