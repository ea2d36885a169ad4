package model

import (
	"slices"
	"strings"
)

const (
	CategoryWork  = "work"
	CategoryStudy = "study"
	CategoryLife  = "life"
	CategoryOther = "other"
)

var Categories = []string{CategoryWork, CategoryStudy, CategoryLife, CategoryOther}

// CleanCategory keeps user-entered text. Known names are lowercased and
// an empty value becomes "other".
func CleanCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return CategoryOther
	}
	if known := strings.ToLower(c); slices.Contains(Categories, known) {
		return known
	}
	return c
}

// CategoryChoices lists the known categories plus current when it is free
// text, so editing an event keeps its category.
func CategoryChoices(current string) []string {
	if current == "" || slices.Contains(Categories, current) {
		return Categories
	}
	return append(slices.Clone(Categories), current)
}

// NormalizeCategory lowercases c and maps anything outside the known set
// to "other". Used for imported calendars.
func NormalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	switch c {
	case CategoryWork, CategoryStudy, CategoryLife, CategoryOther:
		return c
	}
	return CategoryOther
}
