package repository

// ListQuery represents common pagination/filter/sort parameters. Filters are an
// enumerated set of named predicates combined by conjunction; repositories bind
// them as SQL parameters, never by string concatenation.
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Filter returns the named filter value, or "" when unset
func (q *ListQuery) Filter(name string) string {
	if q.Filters == nil {
		return ""
	}
	return q.Filters[name]
}

// SortClause builds an ORDER BY expression from an enumerated whitelist of
// sortable columns. A SortBy outside the whitelist falls back to the
// repository default, so caller input never reaches the SQL text.
func (q *ListQuery) SortClause(sortable map[string]string, fallback string) string {
	column, ok := sortable[q.SortBy]
	if !ok {
		return fallback
	}
	if q.SortDir == "desc" {
		return column + " DESC"
	}
	return column + " ASC"
}

// endOfDay widens a date-only upper bound to include the whole day
func endOfDay(val string) string {
	if len(val) == 10 { // YYYY-MM-DD
		return val + " 23:59:59"
	}
	return val
}
