// AngelaMos | 2026
// dto.go

package okr

type CreateObjectiveRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	TeamID         *string `json:"team_id"`
	SprintID       *string `json:"sprint_id"`
	OwnerProfileID *string `json:"owner_profile_id"`
}

// UpdateObjectiveRequest patches only the fields that are present.
type UpdateObjectiveRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	TeamID         *string `json:"team_id"`
	SprintID       *string `json:"sprint_id"`
	OwnerProfileID *string `json:"owner_profile_id"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type CreateKeyResultRequest struct {
	Title        string  `json:"title"`
	MetricUnit   *string `json:"metric_unit"`
	StartValue   float64 `json:"start_value"`
	TargetValue  float64 `json:"target_value"`
	CurrentValue float64 `json:"current_value"`
}

type UpdateKeyResultRequest struct {
	Title       *string  `json:"title"`
	MetricUnit  *string  `json:"metric_unit"`
	StartValue  *float64 `json:"start_value"`
	TargetValue *float64 `json:"target_value"`
}

type UpdateProgressRequest struct {
	CurrentValue float64 `json:"current_value"`
}

type ListObjectivesParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	TenantID *string
	TeamID   *string
	SprintID *string
}

func (p *ListObjectivesParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListObjectivesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
