// AngelaMos | 2026
// handler.go

package tenant

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
	r.Route("/tenants", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/", h.List)
		r.Post("/", h.Create)

		// The override is session state, not a tenant row; register the
		// static routes before the wildcard.
		r.Post("/override", h.SetOverride)
		r.Delete("/override", h.ClearOverride)

		r.Get("/{tenantID}", h.Get)
		r.Put("/{tenantID}", h.Update)
		r.Delete("/{tenantID}", h.Deactivate)
		r.Post("/{tenantID}/reactivate", h.Reactivate)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListTenantsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Inactive: r.URL.Query().Get("inactive") == "true",
	}

	tenants, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Paginated(w, tenants, params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.service.Create(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.Created(w, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	t, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.service.Update(
		r.Context(),
		scope,
		chi.URLParam(r, "tenantID"),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"slug already in use",
				http.StatusConflict,
				"DUPLICATE_SLUG",
			))
			return
		}
		h.respondError(w, err)
		return
	}

	core.OK(w, t)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.Deactivate(
		r.Context(),
		scope,
		chi.URLParam(r, "tenantID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.Reactivate(
		r.Context(),
		scope,
		chi.URLParam(r, "tenantID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	err := h.service.SetOverride(r.Context(), scope, req.TenantID)
	if err != nil {
		if errors.Is(err, core.ErrInvalidTenantOverride) {
			core.JSONError(w, core.InvalidTenantOverrideError())
			return
		}
		h.respondError(w, err)
		return
	}

	core.OK(w, map[string]string{"status": "override set"})
}

func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	if err := h.service.ClearOverride(r.Context(), scope); err != nil {
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
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "tenant")
	case errors.Is(err, core.ErrNoRoleAssigned):
		core.JSONError(w, core.NoRoleAssignedError())
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "requires root role")
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
