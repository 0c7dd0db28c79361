package feed

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict policy drops every tag, leaving text content only
var stripPolicy = bluemonday.StrictPolicy()

// Clean strips markup tags from raw feed text and trims surrounding
// whitespace. Total function: never fails, empty input yields empty output.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	// bluemonday escapes entities in the surviving text, unescape them back
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(raw)))
}
