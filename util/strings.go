package util

import (
	"regexp"
	"unicode/utf8"
)

var newlineRun = regexp.MustCompile(`[\r\n]+`)

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// CollapseNewlines replaces every run of CR/LF characters with a single space.
func CollapseNewlines(s string) string {
	return newlineRun.ReplaceAllString(s, " ")
}
