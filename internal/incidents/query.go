package incidents

import "strings"

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// sortColumns whitelists API sort field names and maps them to SQL
// columns. A user-supplied sortBy never reaches the query text directly.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"severity":  "severity",
	"status":    "status",
	"service":   "service",
	"title":     "title",
}

// ListParams carries the raw, unvalidated list query inputs as they
// arrive from the client.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string

	Service  string
	Severity string
	Status   string
	Search   string
}

// Query is a normalized list query: clamped page spec, whitelisted sort
// and the filter predicate shared by List and Count.
type Query struct {
	Page   int
	Limit  int
	Sort   Sort
	Filter Filter
}

// Sort holds a whitelisted ORDER BY column and direction.
type Sort struct {
	Column string // SQL column name, never user input
	Desc   bool
}

// Filter holds the conjunctive equality filters plus the free-text
// search term. Empty values mean "no condition".
type Filter struct {
	Service  string
	Severity string
	Status   string
	Search   string
}

// Normalize clamps the page spec and resolves sort inputs against the
// whitelist. Page drops to a minimum of 1, limit clamps into
// [1, MaxPageSize] with DefaultPageSize when unset, unknown sort fields
// fall back to createdAt and unknown orders to descending. Invalid sort
// inputs are deliberately not errors: the fallback keeps list URLs
// shareable even when a client sends stale field names.
func (p ListParams) Normalize() Query {
	page := p.Page
	if page < 1 {
		page = 1
	}

	limit := p.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}

	desc := true
	if strings.EqualFold(p.SortOrder, "ASC") {
		desc = false
	}

	return Query{
		Page:  page,
		Limit: limit,
		Sort:  Sort{Column: column, Desc: desc},
		Filter: Filter{
			Service:  p.Service,
			Severity: p.Severity,
			Status:   p.Status,
			Search:   p.Search,
		},
	}
}

// Offset returns the slice offset for the normalized page spec.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}
