// AngelaMos | 2026
// dto.go

package wiki

type CreateCategoryRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	Slug     *string `json:"slug"`
	Position *int    `json:"position"`
}

type CreateDocumentRequest struct {
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Content    string  `json:"content"`
	CategoryID *string `json:"category_id"`
}

type UpdateDocumentRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Content    *string `json:"content"`
	CategoryID *string `json:"category_id"`
}

type ListDocumentsParams struct {
	Page       int
	PageSize   int
	Search     string
	TenantID   *string
	CategoryID *string
}

func (p *ListDocumentsParams) Normalize() {
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

func (p *ListDocumentsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
