package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOptionsQuery(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want string
	}{
		{
			name: "empty options omit everything",
			opts: ListOptions{},
			want: "",
		},
		{
			name: "page and limit",
			opts: ListOptions{Page: 2, Limit: 25},
			want: "limit=25&page=2",
		},
		{
			name: "full filter set",
			opts: ListOptions{
				Page:      1,
				Limit:     10,
				SortBy:    "severity",
				SortOrder: "ASC",
				Service:   "payments",
				Severity:  "SEV1",
				Status:    "OPEN",
				Search:    "timeout",
			},
			want: "limit=10&page=1&search=timeout&service=payments&severity=SEV1&sortBy=severity&sortOrder=ASC&status=OPEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.query().Encode())
		})
	}
}

func TestUpdateIncidentParamsMarshalJSON(t *testing.T) {
	title := "Revised title"
	owner := "alice"

	tests := []struct {
		name   string
		params UpdateIncidentParams
		want   string
	}{
		{
			name:   "empty patch",
			params: UpdateIncidentParams{},
			want:   `{}`,
		},
		{
			name:   "single field",
			params: UpdateIncidentParams{Title: &title},
			want:   `{"title":"Revised title"}`,
		},
		{
			name:   "owner set to value",
			params: UpdateIncidentParams{Owner: &owner, OwnerSet: true},
			want:   `{"owner":"alice"}`,
		},
		{
			name:   "owner cleared to null",
			params: UpdateIncidentParams{OwnerSet: true},
			want:   `{"owner":null}`,
		},
		{
			name:   "summary cleared to null",
			params: UpdateIncidentParams{SummarySet: true},
			want:   `{"summary":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.params)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestClientCreateIncident(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/incidents", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Checkout latency spike", req["title"])
		assert.NotContains(t, req, "owner")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Incident{
			ID:        "5f1c7e74-93d1-4a3a-b6e1-0f2d8a1c9e31",
			Title:     "Checkout latency spike",
			Service:   "payments",
			Severity:  "SEV2",
			Status:    "OPEN",
			CreatedAt: created,
			UpdatedAt: created,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	inc, err := c.CreateIncident(context.Background(), CreateIncidentParams{
		Title:    "Checkout latency spike",
		Service:  "payments",
		Severity: "SEV2",
		Status:   "OPEN",
	})
	require.NoError(t, err)
	assert.Equal(t, "5f1c7e74-93d1-4a3a-b6e1-0f2d8a1c9e31", inc.ID)
	assert.Nil(t, inc.Owner)
	assert.True(t, inc.CreatedAt.Equal(inc.UpdatedAt))
}

func TestClientIncidentsSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SEV1", r.URL.Query().Get("severity"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("service"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ListResponse{
			Incidents: []Incident{},
			Pagination: Pagination{
				Page: 2, Limit: 10, Total: 11, TotalPages: 2,
				HasNextPage: false, HasPrevPage: true,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	list, err := c.Incidents(context.Background(), ListOptions{Page: 2, Severity: "SEV1"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.Page)
	assert.True(t, list.Pagination.HasPrevPage)
	assert.Empty(t, list.Incidents)
}

func TestClientErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/incidents/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Incident not found"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Validation failed","details":{"severity":"Severity must be one of: SEV1, SEV2, SEV3, SEV4"}}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.Incident(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incident not found", apiErr.Message)

	_, err = c.CreateIncident(context.Background(), CreateIncidentParams{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Details, "severity")
	assert.Contains(t, apiErr.Error(), "Validation failed")
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	hs, err := New(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", hs.Status)
}
