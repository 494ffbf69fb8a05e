package incidents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		want   Query
	}{
		{
			name:   "zero values get defaults",
			params: ListParams{},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "negative page clamps to first",
			params: ListParams{Page: -3, Limit: 20},
			want: Query{
				Page:  1,
				Limit: 20,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "negative limit clamps to one",
			params: ListParams{Page: 2, Limit: -5},
			want: Query{
				Page:  2,
				Limit: 1,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "oversized limit clamps to max",
			params: ListParams{Page: 1, Limit: 500},
			want: Query{
				Page:  1,
				Limit: MaxPageSize,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "limit at max passes through",
			params: ListParams{Page: 1, Limit: 100},
			want: Query{
				Page:  1,
				Limit: 100,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "whitelisted sort field maps to column",
			params: ListParams{SortBy: "updatedAt", SortOrder: "ASC"},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "updated_at", Desc: false},
			},
		},
		{
			name:   "sort order is case insensitive",
			params: ListParams{SortBy: "severity", SortOrder: "asc"},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "severity", Desc: false},
			},
		},
		{
			name:   "unknown sort field falls back to created_at",
			params: ListParams{SortBy: "id; DROP TABLE incidents"},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "created_at", Desc: true},
			},
		},
		{
			name:   "unknown sort order falls back to descending",
			params: ListParams{SortBy: "title", SortOrder: "sideways"},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "title", Desc: true},
			},
		},
		{
			name: "filters pass through untouched",
			params: ListParams{
				Service:  "payments",
				Severity: "SEV1",
				Status:   "OPEN",
				Search:   "timeout",
			},
			want: Query{
				Page:  1,
				Limit: DefaultPageSize,
				Sort:  Sort{Column: "created_at", Desc: true},
				Filter: Filter{
					Service:  "payments",
					Severity: "SEV1",
					Status:   "OPEN",
					Search:   "timeout",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Normalize())
		})
	}
}

func TestQueryOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 25, 50},
		{1, 1, 0},
	}

	for _, tt := range tests {
		q := Query{Page: tt.page, Limit: tt.limit}
		assert.Equal(t, tt.want, q.Offset(), "page=%d limit=%d", tt.page, tt.limit)
	}
}

func TestFieldChangesEmpty(t *testing.T) {
	title := "t"

	assert.True(t, FieldChanges{}.Empty())
	assert.False(t, FieldChanges{Title: &title}.Empty())
	assert.False(t, FieldChanges{OwnerSet: true}.Empty())
	assert.False(t, FieldChanges{SummarySet: true}.Empty())
}
