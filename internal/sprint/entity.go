// AngelaMos | 2026
// entity.go

package sprint

import "time"

// Status walks a one-way ladder: planned, then active, then closed. A
// closed sprint never reopens; its numbers are history.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusActive, StatusClosed:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPlanned:
		return next == StatusActive
	case StatusActive:
		return next == StatusClosed
	default:
		return false
	}
}

// Sprint is a tenant-scoped time box, optionally pinned to one team.
type Sprint struct {
	ID        string    `db:"id"         json:"id"`
	TenantID  string    `db:"tenant_id"  json:"tenant_id"`
	TeamID    *string   `db:"team_id"    json:"team_id,omitempty"`
	Name      string    `db:"name"       json:"name"`
	StartsOn  time.Time `db:"starts_on"  json:"starts_on"`
	EndsOn    time.Time `db:"ends_on"    json:"ends_on"`
	Status    Status    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
