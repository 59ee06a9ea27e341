package models

import "strings"

// NormalizeName gives the canonical upper-case form of a reviewer name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// NormalizeCategory gives the canonical form used to compare natures and origins.
func NormalizeCategory(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
