// Package util provides small generic helpers shared by the redkit packages.
//
// It includes first-non-zero selection, sorted map keys, rune-safe string
// truncation, newline collapsing and presence-style environment flags.
package util
