package crud

import (
	"regexp"
	"strings"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	nonSlugRunes = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases and trims s, collapses every run of characters outside
// [a-z0-9] into a single hyphen, and strips leading and trailing hyphens.
// "Nine Arch Bridge!" becomes "nine-arch-bridge".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRunes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is non-empty and made only of lowercase
// letters, digits and hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
