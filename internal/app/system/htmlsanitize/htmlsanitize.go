// internal/app/system/htmlsanitize/htmlsanitize.go
// Package htmlsanitize strips dangerous markup from user-supplied document
// fields. Titles and icons are plain text; document content keeps the basic
// formatting tags the editor produces.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	contentPolicy = bluemonday.UGCPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

// Sanitize cleans rich content, allowing the usual user-generated-content
// tags while removing scripts and event handlers.
func Sanitize(s string) string {
	return contentPolicy.Sanitize(s)
}

// PlainText strips all markup, for fields that must be plain text
// (titles, icons, presence names).
func PlainText(s string) string {
	return strictPolicy.Sanitize(s)
}
