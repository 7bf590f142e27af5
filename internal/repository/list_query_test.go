package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQueryDefaults(t *testing.T) {
	q := NewListQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PerPage)
	assert.NotNil(t, q.Filters)
}

func TestListQueryFilter(t *testing.T) {
	q := NewListQuery()
	q.Filters["status"] = "1"

	assert.Equal(t, "1", q.Filter("status"))
	assert.Equal(t, "", q.Filter("missing"))

	var empty ListQuery
	assert.Equal(t, "", empty.Filter("status"), "nil filter map is safe")
}

func TestSortClauseOnlyAcceptsWhitelistedColumns(t *testing.T) {
	q := NewListQuery()
	q.SortDir = "desc"

	q.SortBy = "total"
	assert.Equal(t, "loans.total DESC", q.SortClause(loanSortColumns, "loans.start_date DESC"))

	q.SortDir = ""
	assert.Equal(t, "loans.total ASC", q.SortClause(loanSortColumns, "loans.start_date DESC"))

	// Hostile input falls back to the default instead of reaching the SQL text
	q.SortBy = "id; DROP TABLE loans; --"
	assert.Equal(t, "loans.start_date DESC", q.SortClause(loanSortColumns, "loans.start_date DESC"))

	q.SortBy = "password"
	assert.Equal(t, "created_at DESC", q.SortClause(userSortColumns, "created_at DESC"))
}

func TestEndOfDay(t *testing.T) {
	assert.Equal(t, "2026-08-27 23:59:59", endOfDay("2026-08-27"))
	assert.Equal(t, "2026-08-27 10:00:00", endOfDay("2026-08-27 10:00:00"))
}
