package utils

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// RenderMarkdown converts post content to HTML and strips anything the UGC policy disallows.
func RenderMarkdown(input string) string {
	return Sanitize(string(blackfriday.Run([]byte(input))))
}
