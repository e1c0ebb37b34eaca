package util

import (
	"os"
	"strings"
)

// SanitizeEnvValue cleans an environment variable value by removing surrounding
// quotes and trimming whitespace.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	// Strip matching surrounding quotes (single or double).
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// Truthy reports whether an environment value counts as "set": non-empty after
// sanitizing and not "0" or "false".
func Truthy(s string) bool {
	s = strings.ToLower(SanitizeEnvValue(s))
	return s != "" && s != "0" && s != "false"
}

// EnvFlag reports whether the named environment variable is present and truthy.
func EnvFlag(name string) bool {
	return Truthy(os.Getenv(name))
}
