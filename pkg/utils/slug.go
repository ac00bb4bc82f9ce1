package utils

import (
	"regexp"
	"strings"
)

// SlugPattern matches lowercase alphanumerics and hyphens, 2 to 64 chars.
var SlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a display name: lowercased, with runs of
// other characters collapsed to a single hyphen.
func Slugify(name string) string {
	s := slugSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	s = strings.Trim(s, "-")
	if len(s) > 64 {
		s = strings.TrimRight(s[:64], "-")
	}
	return s
}

// IsSlug reports whether s is a valid slug.
func IsSlug(s string) bool {
	return SlugPattern.MatchString(s)
}
