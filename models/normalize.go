package models

import "strings"

// NormalizeName lowercases a place name and collapses runs of whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// addressSuffixes are country/region tails providers append inconsistently.
var addressSuffixes = []string{", united states", ", usa", ", us"}

// NormalizeAddress lowercases, collapses whitespace and strips trailing country suffixes.
func NormalizeAddress(address string) string {
	a := NormalizeName(address)
	for _, suffix := range addressSuffixes {
		a = strings.TrimSuffix(a, suffix)
	}
	return strings.TrimSpace(a)
}
