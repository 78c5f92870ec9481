// Package category defines the closed set of commit categories
package category

import "strings"

// Category is a semantic commit category
type Category string

const (
	Fix      Category = "fix"
	Feature  Category = "feature"
	Docs     Category = "docs"
	Refactor Category = "refactor"
	Test     Category = "test"
	Style    Category = "style"
	Chore    Category = "chore"

	// Other is the undecided sentinel that escalates to the next cascade stage
	Other Category = "other"
)

// decided lists every category except Other in enumeration order
var decided = []Category{Fix, Feature, Docs, Refactor, Test, Style, Chore}

// legacy oracle vocabulary, never returned as a final category
var legacy = map[string]Category{
	"perf": Refactor,
	"ci":   Chore,
}

// Decided returns the seven decided categories in enumeration order
func Decided() []Category {
	return append([]Category(nil), decided...)
}

// All returns all eight categories in enumeration order
func All() []Category {
	return append(Decided(), Other)
}

// String implements fmt.Stringer
func (c Category) String() string { return string(c) }

// Valid reports whether c is one of the eight categories
func (c Category) Valid() bool {
	if c == Other {
		return true
	}
	for _, d := range decided {
		if c == d {
			return true
		}
	}
	return false
}

// IsOther reports whether c is the undecided sentinel
func (c Category) IsOther() bool { return c == Other || c == "" }

// Parse maps a string to a Category
// legacy terms perf and ci are remapped, anything unknown becomes Other
func Parse(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := legacy[s]; ok {
		return c
	}
	if c := Category(s); c.Valid() {
		return c
	}
	return Other
}
