// AngelaMos | 2026
// dto.go

package team

type CreateTeamRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ListTeamsParams struct {
	Page            int     `json:"page"`
	PageSize        int     `json:"page_size"`
	Search          string  `json:"search"`
	TenantID        *string `json:"tenant_id,omitempty"`
	IncludeArchived bool    `json:"include_archived"`
}

func (p *ListTeamsParams) Normalize() {
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

func (p *ListTeamsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
