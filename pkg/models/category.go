package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of spending categories an expense can belong to
type Category int

const (
	Books Category = iota
	Charity
	Clothing
	Grocery
	Education
	Entertainment
	Fine
	Gift
	Healthcare
	Hobby
	Insurance
	Rent
	Restaurants
	Savings
	Shopping
	Sport
	Taxes
	Transportation
	Travel
	Utilities
	Miscellaneous
	Unknown
)

var categoryNames = [...]string{
	Books:          "Books",
	Charity:        "Charity",
	Clothing:       "Clothing",
	Grocery:        "Grocery",
	Education:      "Education",
	Entertainment:  "Entertainment",
	Fine:           "Fine",
	Gift:           "Gift",
	Healthcare:     "Healthcare",
	Hobby:          "Hobby",
	Insurance:      "Insurance",
	Rent:           "Rent",
	Restaurants:    "Restaurants",
	Savings:        "Savings",
	Shopping:       "Shopping",
	Sport:          "Sport",
	Taxes:          "Taxes",
	Transportation: "Transportation",
	Travel:         "Travel",
	Utilities:      "Utilities",
	Miscellaneous:  "Miscellaneous",
	Unknown:        "Unknown",
}

var categoryByKey = func() map[string]Category {
	m := make(map[string]Category, len(categoryNames))
	for i, name := range categoryNames {
		m[categoryKey(name)] = Category(i)
	}
	return m
}()

func categoryKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Categories returns every category in declaration order, Unknown last
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[Unknown]
	}
	return categoryNames[c]
}

// LookupCategory reports the category named by raw, ignoring case and
// surrounding whitespace. The boolean is false when raw names no category.
func LookupCategory(raw string) (Category, bool) {
	c, ok := categoryByKey[categoryKey(raw)]
	if !ok {
		return Unknown, false
	}
	return c, true
}

// Canonicalize maps any free-text label onto a Category. It never fails:
// labels outside the enumeration, including the empty string, become Unknown.
func Canonicalize(raw string) Category {
	c, _ := LookupCategory(raw)
	return c
}

// MarshalText writes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is strict: config and plan files must name real categories.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := LookupCategory(string(text))
	if !ok {
		return fmt.Errorf("unknown category %q", string(text))
	}
	*c = parsed
	return nil
}

// Aliases maps extra free-text labels (e.g. "groceries", "eating out") onto
// categories. Keys are matched the same way category names are.
type Aliases map[string]Category

// NewAliases builds an alias table from label -> category name pairs, as
// found in configuration files.
func NewAliases(raw map[string]string) (Aliases, error) {
	a := make(Aliases, len(raw))
	for label, name := range raw {
		c, ok := LookupCategory(name)
		if !ok {
			return nil, fmt.Errorf("alias %q points at unknown category %q", label, name)
		}
		a[categoryKey(label)] = c
	}
	return a, nil
}

// Resolve looks raw up in the alias table first and the enumeration second.
// The boolean reports whether either matched; the category is Unknown when
// neither did.
func (a Aliases) Resolve(raw string) (Category, bool) {
	if c, ok := a[categoryKey(raw)]; ok {
		return c, true
	}
	return LookupCategory(raw)
}
