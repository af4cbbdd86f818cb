// AngelaMos | 2026
// handler.go

package sprint

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
	r.Route("/sprints", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{sprintID}", h.Get)
		r.Put("/{sprintID}", h.Update)
		r.Put("/{sprintID}/status", h.ChangeStatus)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListSprintsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}
	if teamID := r.URL.Query().Get("team_id"); teamID != "" {
		params.TeamID = &teamID
	}

	sprints, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Paginated(w, sprints, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	sp, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "sprintID"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, sp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	sp, err := h.service.Create(r.Context(), scope, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Created(w, sp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	sp, err := h.service.Update(
		r.Context(),
		scope,
		chi.URLParam(r, "sprintID"),
		req,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, sp)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	sp, err := h.service.ChangeStatus(
		r.Context(),
		scope,
		chi.URLParam(r, "sprintID"),
		Status(req.Status),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, sp)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		core.ValidationFailed(w, verr.Result.Errors)
		return
	}

	switch {
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "sprint")
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
