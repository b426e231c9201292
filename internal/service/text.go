package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// cleanText reduces user input to trimmed plain text: markup is removed and
// entities are decoded. Sanitizing repeats until stable so entity-encoded
// markup cannot survive decoding.
func cleanText(s string) string {
	out := s
	for range 3 {
		next := html.UnescapeString(strictPolicy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}
