// Package normalize produces the comparison keys used for title and name uniqueness.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key trims surrounding whitespace and case-folds s.
// A new Caser is built per call because cases.Caser is stateful.
func Key(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Contains reports whether the normalized form of s contains the normalized query.
func Contains(s, query string) bool {
	return strings.Contains(Key(s), Key(query))
}
