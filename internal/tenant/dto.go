// AngelaMos | 2026
// dto.go

package tenant

type CreateTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type UpdateTenantRequest struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}

// SetOverrideRequest carries the tenant a root session wants to view as.
type SetOverrideRequest struct {
	TenantID string `json:"tenant_id"`
}

type ListTenantsParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Inactive bool   `json:"inactive"`
}

func (p *ListTenantsParams) Normalize() {
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

func (p *ListTenantsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
