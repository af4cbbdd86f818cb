// AngelaMos | 2026
// dto.go

package sprint

// Dates travel as ISO strings (YYYY-MM-DD) and are parsed at the service
// boundary, matching the shape the rule table validates.
type CreateSprintRequest struct {
	Name     string  `json:"name"`
	TeamID   *string `json:"team_id,omitempty"`
	StartsOn string  `json:"starts_on"`
	EndsOn   string  `json:"ends_on"`
}

type UpdateSprintRequest struct {
	Name     *string `json:"name,omitempty"`
	TeamID   *string `json:"team_id,omitempty"`
	StartsOn *string `json:"starts_on,omitempty"`
	EndsOn   *string `json:"ends_on,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type ListSprintsParams struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	TenantID *string `json:"tenant_id,omitempty"`
	TeamID   *string `json:"team_id,omitempty"`
	Status   string  `json:"status"`
}

func (p *ListSprintsParams) Normalize() {
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

func (p *ListSprintsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
