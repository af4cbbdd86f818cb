// AngelaMos | 2026
// handler.go

package wiki

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, scoped func(http.Handler) http.Handler,
) {
	r.Route("/wiki", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{categoryID}", h.UpdateCategory)
		r.Delete("/categories/{categoryID}", h.DeleteCategory)

		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents/{documentID}", h.GetDocument)
		r.Put("/documents/{documentID}", h.UpdateDocument)
		r.Delete("/documents/{documentID}", h.DeleteDocument)
	})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	categories, err := h.service.ListCategories(r.Context(), scope)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.service.CreateCategory(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"category slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.Created(w, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.service.UpdateCategory(
		r.Context(),
		scope,
		chi.URLParam(r, "categoryID"),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"category slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.OK(w, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.DeleteCategory(
		r.Context(),
		scope,
		chi.URLParam(r, "categoryID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListDocumentsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}
	if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
		params.CategoryID = &categoryID
	}

	documents, total, err := h.service.ListDocuments(r.Context(), scope, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Paginated(w, documents, params.Page, params.PageSize, total)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	d, err := h.service.GetDocument(
		r.Context(),
		scope,
		chi.URLParam(r, "documentID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, d)
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	d, err := h.service.CreateDocument(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"document slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.Created(w, d)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	d, err := h.service.UpdateDocument(
		r.Context(),
		scope,
		chi.URLParam(r, "documentID"),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"document slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.OK(w, d)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.DeleteDocument(
		r.Context(),
		scope,
		chi.URLParam(r, "documentID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		core.ValidationFailed(w, verr.Result.Errors)
		return
	}

	switch {
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "select a tenant scope first")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "wiki entry")
	case errors.Is(err, core.ErrNoRoleAssigned):
		core.JSONError(w, core.NoRoleAssignedError())
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "insufficient permissions")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "authentication required")
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}
