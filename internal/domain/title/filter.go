package title

import "strings"

// ListFilter holds the optional listing constraints. Nil fields impose none;
// the rest combine with AND.
//
//   - Name: case-sensitive substring of the title name
//   - Search: case-insensitive substring of the title name
//   - Category, Genre: exact slug match
//   - Year: exact match
type ListFilter struct {
	Name     *string
	Search   *string
	Category *string
	Genre    *string
	Year     *int
	Limit    int
	Offset   int
}

// Matches evaluates the filter against one title in memory. The postgres
// store expresses the same predicate in SQL.
func (f ListFilter) Matches(t Title) bool {
	if f.Name != nil && !strings.Contains(t.Name, *f.Name) {
		return false
	}

	if f.Search != nil && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(*f.Search)) {
		return false
	}

	if f.Category != nil {
		if t.Category == nil || t.Category.Slug != *f.Category {
			return false
		}
	}

	if f.Genre != nil {
		found := false
		for _, g := range t.Genres {
			if g.Slug == *f.Genre {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Year != nil && t.Year != *f.Year {
		return false
	}

	return true
}
