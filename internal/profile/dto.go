// AngelaMos | 2026
// dto.go

package profile

import (
	"time"

	"github.com/northstarhq/northstar/internal/rbac"
)

type CreateAccountRequest struct {
	Email    string   `json:"email"     validate:"required,email,max=255"`
	Password string   `json:"password"  validate:"required,min=8,max=128"`
	Name     string   `json:"name"      validate:"required,min=1,max=100"`
	TenantID *string  `json:"tenant_id" validate:"omitempty,uuid"`
	Roles    []string `json:"roles"     validate:"omitempty,dive,oneof=root admin leader member"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"       validate:"omitempty,min=1,max=100"`
	Title     *string `json:"title,omitempty"      validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
}

type AssignTenantRequest struct {
	TenantID *string `json:"tenant_id" validate:"omitempty,uuid"`
}

type GrantRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=root admin leader member"`
}

type AccountResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Title     *string     `json:"title,omitempty"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
	TenantID  *string     `json:"tenant_id,omitempty"`
	Roles     []rbac.Role `json:"roles"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type ListAccountsParams struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Search   string  `json:"search"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
	Inactive bool    `json:"inactive"`
}

func (p *ListAccountsParams) Normalize() {
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

func (p *ListAccountsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Title:     a.Title,
		AvatarURL: a.AvatarURL,
		TenantID:  a.TenantID,
		Roles:     a.Roles,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i]))
	}
	return responses
}
