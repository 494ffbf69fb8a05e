// Package client provides a typed HTTP client for the incident-desk API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Incident is one incident record as returned by the API.
type Incident struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Service   string    `json:"service"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Owner     *string   `json:"owner"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListResponse is one page of incidents plus pagination metadata.
type ListResponse struct {
	Incidents  []Incident `json:"incidents"`
	Pagination Pagination `json:"pagination"`
}

// ListOptions holds filter, sort and pagination parameters for Incidents.
// Zero values are omitted from the query string.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Service   string
	Severity  string
	Status    string
	Search    string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.SortBy != "" {
		q.Set("sortBy", o.SortBy)
	}
	if o.SortOrder != "" {
		q.Set("sortOrder", o.SortOrder)
	}
	if o.Service != "" {
		q.Set("service", o.Service)
	}
	if o.Severity != "" {
		q.Set("severity", o.Severity)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	return q
}

// CreateIncidentParams are the fields accepted when creating an incident.
type CreateIncidentParams struct {
	Title    string  `json:"title"`
	Service  string  `json:"service"`
	Severity string  `json:"severity"`
	Status   string  `json:"status"`
	Owner    *string `json:"owner,omitempty"`
	Summary  *string `json:"summary,omitempty"`
}

// UpdateIncidentParams describes a partial update. Nil fields are left
// untouched. Owner and Summary distinguish "leave as is" (flag unset)
// from "clear to null" (flag set, value nil).
type UpdateIncidentParams struct {
	Title    *string
	Service  *string
	Severity *string
	Status   *string

	Owner    *string
	OwnerSet bool

	Summary    *string
	SummarySet bool
}

// MarshalJSON emits only the fields the caller set, including explicit
// nulls for cleared owner/summary.
func (p UpdateIncidentParams) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{})
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Service != nil {
		body["service"] = *p.Service
	}
	if p.Severity != nil {
		body["severity"] = *p.Severity
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	if p.OwnerSet {
		body["owner"] = p.Owner
	}
	if p.SummarySet {
		body["summary"] = p.Summary
	}
	return json.Marshal(body)
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// APIError is a non-2xx response decoded from the API's error contract.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	parts := make([]string, 0, len(e.Details))
	for field, reason := range e.Details {
		parts = append(parts, field+": "+reason)
	}
	return fmt.Sprintf("api: %s (status %d): %s", e.Message, e.StatusCode, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is an APIError with status 400.
func IsValidation(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusBadRequest
}

// Client talks to an incident-desk server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateIncident creates a new incident and returns the stored record.
func (c *Client) CreateIncident(ctx context.Context, params CreateIncidentParams) (*Incident, error) {
	var inc Incident
	if err := c.do(ctx, http.MethodPost, "/api/incidents", nil, params, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// Incident fetches a single incident by id.
func (c *Client) Incident(ctx context.Context, id string) (*Incident, error) {
	var inc Incident
	if err := c.do(ctx, http.MethodGet, "/api/incidents/"+url.PathEscape(id), nil, nil, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// Incidents fetches one page of incidents matching opts.
func (c *Client) Incidents(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	var list ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/incidents", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateIncident applies a partial update and returns the updated record.
func (c *Client) UpdateIncident(ctx context.Context, id string, params UpdateIncidentParams) (*Incident, error) {
	var inc Incident
	if err := c.do(ctx, http.MethodPatch, "/api/incidents/"+url.PathEscape(id), nil, params, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// Health checks the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var hs HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &hs); err != nil {
		return nil, err
	}
	return &hs, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
