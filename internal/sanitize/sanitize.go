// Package sanitize strips HTML from user-submitted form fields before they
// reach the store.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes. Used for short
	// text fields (names, titles, designations).
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows basic safe formatting. Used for long description
	// fields where the admin panel permits simple markup.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and returns trimmed plain text.
func Text(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// HTML sanitizes content, allowing safe formatting tags and removing
// scripts, iframes, and event handlers.
func HTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}
