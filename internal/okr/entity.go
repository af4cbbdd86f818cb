// AngelaMos | 2026
// entity.go

package okr

import "time"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Objective is a tenant-scoped OKR. Team, sprint and owner links are
// optional. Archived is a status, not a deletion: key results and audit
// history stay attached.
type Objective struct {
	ID             string      `db:"id"               json:"id"`
	TenantID       string      `db:"tenant_id"        json:"tenant_id"`
	TeamID         *string     `db:"team_id"          json:"team_id,omitempty"`
	SprintID       *string     `db:"sprint_id"        json:"sprint_id,omitempty"`
	OwnerProfileID *string     `db:"owner_profile_id" json:"owner_profile_id,omitempty"`
	Title          string      `db:"title"            json:"title"`
	Description    *string     `db:"description"      json:"description,omitempty"`
	Status         Status      `db:"status"           json:"status"`
	CreatedAt      time.Time   `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"       json:"updated_at"`
	KeyResults     []KeyResult `db:"-"                json:"key_results,omitempty"`
	Progress       float64     `db:"-"                json:"progress"`
}

// KeyResult measures one objective along a numeric axis from StartValue to
// TargetValue. Decreasing targets (target below start) are valid; progress
// arithmetic is signed.
type KeyResult struct {
	ID           string    `db:"id"            json:"id"`
	OKRID        string    `db:"okr_id"        json:"okr_id"`
	TenantID     string    `db:"tenant_id"     json:"tenant_id"`
	Title        string    `db:"title"         json:"title"`
	MetricUnit   *string   `db:"metric_unit"   json:"metric_unit,omitempty"`
	StartValue   float64   `db:"start_value"   json:"start_value"`
	TargetValue  float64   `db:"target_value"  json:"target_value"`
	CurrentValue float64   `db:"current_value" json:"current_value"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
	Progress     float64   `db:"-"             json:"progress"`
}

// ProgressPercent reports how far CurrentValue has moved from StartValue
// toward TargetValue, clamped to [0, 100]. A zero span counts as complete
// once the current value has reached the target.
func (k *KeyResult) ProgressPercent() float64 {
	span := k.TargetValue - k.StartValue
	if span == 0 {
		if k.CurrentValue == k.TargetValue {
			return 100
		}
		return 0
	}

	pct := (k.CurrentValue - k.StartValue) / span * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ProgressPercent averages the objective's key results. An objective with
// no key results reports zero.
func (o *Objective) ProgressPercent() float64 {
	if len(o.KeyResults) == 0 {
		return 0
	}

	var sum float64
	for i := range o.KeyResults {
		sum += o.KeyResults[i].ProgressPercent()
	}
	return sum / float64(len(o.KeyResults))
}
