// Package postgres provides the PostgreSQL implementation of the
// incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oncallhub/incident-desk/internal/domain"
	"github.com/oncallhub/incident-desk/internal/incidents"
)

const incidentColumns = "id, title, service, severity, status, owner, summary, created_at, updated_at"

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert writes a fully populated incident record. Unique and CHECK
// constraint violations map to ErrConstraintViolation; they are
// unreachable behind API validation.
func (r *Repository) Insert(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, title, service, severity, status, owner, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.Title,
		incident.Service,
		incident.Severity,
		incident.Status,
		incident.Owner,
		incident.Summary,
		incident.CreatedAt,
		incident.UpdatedAt,
	)

	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %v", incidents.ErrConstraintViolation, err)
		}
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// Count returns the number of incidents matching the filter.
func (r *Repository) Count(ctx context.Context, filter incidents.Filter) (int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM incidents"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return total, nil
}

// List retrieves one page of incidents matching the filter. The id
// tiebreak keeps LIMIT/OFFSET pagination stable when the sort column
// has duplicate values.
func (r *Repository) List(ctx context.Context, q incidents.Query) ([]domain.Incident, error) {
	where, args := buildWhere(q.Filter)

	direction := "DESC"
	if !q.Sort.Desc {
		direction = "ASC"
	}

	// q.Sort.Column comes from the sort whitelist, never from request text.
	query := fmt.Sprintf(
		"SELECT %s FROM incidents%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d",
		incidentColumns, where, q.Sort.Column, direction, len(args)+1, len(args)+2,
	)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		items = append(items, *incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	return items, nil
}

// Update applies a partial change set plus the refreshed updated_at and
// returns the full updated record.
func (r *Repository) Update(ctx context.Context, id string, changes incidents.FieldChanges, updatedAt time.Time) (*domain.Incident, error) {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Service != nil {
		add("service", *changes.Service)
	}
	if changes.Severity != nil {
		add("severity", *changes.Severity)
	}
	if changes.Status != nil {
		add("status", *changes.Status)
	}
	if changes.OwnerSet {
		add("owner", changes.Owner) // nil pointer writes NULL
	}
	if changes.SummarySet {
		add("summary", changes.Summary)
	}
	add("updated_at", updatedAt)

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE incidents SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), incidentColumns,
	)

	incident, err := scanIncident(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrNotFound
		}
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: %v", incidents.ErrConstraintViolation, err)
		}
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

// buildWhere composes the shared filter predicate used by both Count
// and List: ANDed equality filters plus an ORed substring search over
// title, summary and owner. Empty filter values add no condition.
func buildWhere(filter incidents.Filter) (string, []interface{}) {
	where := " WHERE 1=1"
	var args []interface{}

	if filter.Service != "" {
		args = append(args, filter.Service)
		where += fmt.Sprintf(" AND service = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		where += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (title ILIKE $%d OR summary ILIKE $%d OR owner ILIKE $%d)", n, n, n)
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Service,
		&incident.Severity,
		&incident.Status,
		&incident.Owner,
		&incident.Summary,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// isConstraintViolation reports unique (23505) and check (23514)
// constraint failures.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23514"
}
