// AngelaMos | 2026
// handler.go

package team

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
	r.Route("/teams", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{teamID}", h.Get)
		r.Put("/{teamID}", h.Update)
		r.Delete("/{teamID}", h.Archive)
		r.Post("/{teamID}/restore", h.Restore)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListTeamsParams{
		Page:            parseIntQuery(r, "page", 1),
		PageSize:        parseIntQuery(r, "page_size", 20),
		Search:          r.URL.Query().Get("search"),
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}

	teams, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Paginated(w, teams, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	t, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "teamID"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, t)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.service.Create(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"team slug already in use",
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

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.service.Update(
		r.Context(),
		scope,
		chi.URLParam(r, "teamID"),
		req,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"team slug already in use",
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

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.Archive(r.Context(), scope, chi.URLParam(r, "teamID"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.Restore(r.Context(), scope, chi.URLParam(r, "teamID"))
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
		core.NotFound(w, "team")
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
