package category

import (
	"strings"

	"golang.org/x/text/cases"
)

// All is the category filter value that passes every item.
const All = "all"

// MatchesText reports whether name contains query, ignoring case.
func MatchesText(name, query string) bool {
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(query))
}

// MatchesFilter reports whether an item category passes the filter value.
// Empty and "all" pass everything.
func MatchesFilter(itemCategory, filter string) bool {
	return filter == "" || filter == All || itemCategory == filter
}
