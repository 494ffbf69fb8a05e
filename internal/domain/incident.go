// Package domain contains the core entities of the incident tracker.
package domain

import "time"

// Severity represents the urgency tier of an incident. SEV1 is the
// highest tier, SEV4 the lowest.
type Severity string

// Severity tiers.
const (
	SeveritySev1 Severity = "SEV1"
	SeveritySev2 Severity = "SEV2"
	SeveritySev3 Severity = "SEV3"
	SeveritySev4 Severity = "SEV4"
)

// Status represents the lifecycle state of an incident. The usual
// progression is OPEN -> MITIGATED -> RESOLVED, but transitions are not
// enforced in any particular order.
type Status string

// Incident statuses.
const (
	StatusOpen      Status = "OPEN"
	StatusMitigated Status = "MITIGATED"
	StatusResolved  Status = "RESOLVED"
)

// Incident is a single tracked production issue record.
//
// Owner and Summary are the only nullable fields; they marshal to JSON
// null when absent, matching the wire contract.
type Incident struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Service   string    `json:"service"`
	Severity  Severity  `json:"severity"`
	Status    Status    `json:"status"`
	Owner     *string   `json:"owner"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsValid checks if the severity is one of the enumerated tiers.
func (s Severity) IsValid() bool {
	return s == SeveritySev1 || s == SeveritySev2 || s == SeveritySev3 || s == SeveritySev4
}

// IsValid checks if the status is one of the enumerated states.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusMitigated || s == StatusResolved
}
