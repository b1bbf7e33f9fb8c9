package schedule

import "strings"

// Sanitize normalizes text content read from a markup node: leading and
// trailing whitespace is trimmed and absent text collapses to the empty
// string. Entity decoding has already happened in the tokenizer.
func Sanitize(s string) string {
	return strings.TrimSpace(s)
}
