package incidents

import (
	"context"
	"errors"
	"time"

	"github.com/oncallhub/incident-desk/internal/domain"
)

// Domain errors surfaced by the incidents module.
var (
	// ErrNotFound is returned when the referenced incident id does not exist.
	ErrNotFound = errors.New("incident not found")

	// ErrConstraintViolation is returned when the store rejects a write
	// (duplicate id or an enum value outside the CHECK constraint). It
	// should be unreachable behind API validation and therefore maps to a
	// generic server error at the boundary.
	ErrConstraintViolation = errors.New("incident constraint violation")
)

// Repository defines the interface for incident persistence.
type Repository interface {
	// Insert writes a fully populated incident record.
	Insert(ctx context.Context, incident *domain.Incident) error

	// GetByID returns the incident or ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Incident, error)

	// Count returns the number of incidents matching the filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// List returns one page of incidents matching the filter, ordered by
	// the given sort with a deterministic id tiebreak.
	List(ctx context.Context, q Query) ([]domain.Incident, error)

	// Update applies a partial set of field changes plus the refreshed
	// updatedAt and returns the updated record, or ErrNotFound. Callers
	// must not pass an empty change set.
	Update(ctx context.Context, id string, changes FieldChanges, updatedAt time.Time) (*domain.Incident, error)
}

// FieldChanges holds a partial set of incident field updates. Nil
// pointers leave the field unchanged. Owner and Summary are nullable:
// the Set flag marks them as part of the change set, and a nil value
// with Set=true writes SQL NULL.
type FieldChanges struct {
	Title    *string
	Service  *string
	Severity *domain.Severity
	Status   *domain.Status

	Owner      *string
	OwnerSet   bool
	Summary    *string
	SummarySet bool
}

// Empty reports whether the change set touches no fields.
func (c FieldChanges) Empty() bool {
	return c.Title == nil && c.Service == nil && c.Severity == nil &&
		c.Status == nil && !c.OwnerSet && !c.SummarySet
}
