package domain

// FilterCriteria holds the user-entered predicates of the product list.
// All fields are optional; empty fields do not filter.
type FilterCriteria struct {
	Term     string // matched against name and category
	Category string // exact match, case-insensitive
	MinPrice string // decimal lower bound, ignored when unparseable
	MaxPrice string // decimal upper bound, ignored when unparseable
}

// IsZero reports whether no predicate is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// SearchQuery holds the parameters of a server-side search.
type SearchQuery struct {
	Name     string
	Category string
	MinPrice string
	MaxPrice string
}
