// AngelaMos | 2026
// dto.go

package audit

type RecordRequest struct {
	Action     string         `json:"action"      validate:"required,max=64"`
	EntityType string         `json:"entity_type" validate:"required,max=64"`
	EntityID   *string        `json:"entity_id,omitempty"  validate:"omitempty,uuid"`
	Details    map[string]any `json:"details,omitempty"`
}

type ListParams struct {
	Page        int     `json:"page"`
	PageSize    int     `json:"page_size"`
	TenantID    *string `json:"tenant_id,omitempty"`
	Action      string  `json:"action"`
	EntityType  string  `json:"entity_type"`
	EntityID    string  `json:"entity_id"`
	ActorUserID string  `json:"actor_user_id"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
