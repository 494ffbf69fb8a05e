// Package incidents provides HTTP handlers and business logic for
// tracking production incidents.
package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oncallhub/incident-desk/internal/domain"
	"github.com/oncallhub/incident-desk/internal/pkg/metrics"
)

// Service implements incident business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateIncidentInput holds data for creating an incident. All enum and
// non-empty validation happens at the API boundary before this point.
type CreateIncidentInput struct {
	Title    string
	Service  string
	Severity domain.Severity
	Status   domain.Status
	Owner    *string
	Summary  *string
}

// Create assigns the id and timestamps, persists the incident and
// returns the stored record. CreatedAt and UpdatedAt are set to the same
// instant, truncated to microseconds so the value round-trips through
// the timestamptz column unchanged.
func (s *Service) Create(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	now := s.now().Truncate(time.Microsecond)

	incident := &domain.Incident{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Service:   input.Service,
		Severity:  input.Severity,
		Status:    input.Status,
		Owner:     input.Owner,
		Summary:   input.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	metrics.IncidentsCreated.WithLabelValues(string(incident.Severity)).Inc()

	return incident, nil
}

// Get returns the incident with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// ListResult is the list response contract: one page of incidents plus
// pagination metadata computed against the full filtered count.
type ListResult struct {
	Incidents  []domain.Incident `json:"incidents"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination describes the slice position within the filtered set.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// List normalizes the query, fetches the requested page and computes
// pagination flags. The total is counted with the same predicate as the
// page, independent of page and limit.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	q := params.Normalize()

	total, err := s.repo.Count(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	totalPages := (total + q.Limit - 1) / q.Limit

	return &ListResult{
		Incidents: items,
		Pagination: Pagination{
			Page:        q.Page,
			Limit:       q.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNextPage: q.Page < totalPages,
			HasPrevPage: q.Page > 1,
		},
	}, nil
}

// Update applies a partial change set to an existing incident and
// refreshes UpdatedAt. An empty change set is a no-op read: the current
// record comes back with its timestamp untouched.
func (s *Service) Update(ctx context.Context, id string, changes FieldChanges) (*domain.Incident, error) {
	if changes.Empty() {
		return s.repo.GetByID(ctx, id)
	}

	return s.repo.Update(ctx, id, changes, s.now().Truncate(time.Microsecond))
}
