// AngelaMos | 2026
// handler.go

package okr

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
	r.Route("/okrs", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{okrID}", h.Get)
		r.Put("/{okrID}", h.Update)
		r.Put("/{okrID}/status", h.ChangeStatus)
		r.Post("/{okrID}/key-results", h.AddKeyResult)
	})

	r.Route("/key-results", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Put("/{keyResultID}", h.UpdateKeyResult)
		r.Delete("/{keyResultID}", h.DeleteKeyResult)
		r.Put("/{keyResultID}/progress", h.UpdateProgress)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListObjectivesParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Status:   r.URL.Query().Get("status"),
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}
	if teamID := r.URL.Query().Get("team_id"); teamID != "" {
		params.TeamID = &teamID
	}
	if sprintID := r.URL.Query().Get("sprint_id"); sprintID != "" {
		params.SprintID = &sprintID
	}

	objectives, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Paginated(w, objectives, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	o, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "okrID"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, o)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateObjectiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	o, err := h.service.Create(r.Context(), scope, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Created(w, o)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateObjectiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	o, err := h.service.Update(
		r.Context(),
		scope,
		chi.URLParam(r, "okrID"),
		req,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, o)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	o, err := h.service.ChangeStatus(
		r.Context(),
		scope,
		chi.URLParam(r, "okrID"),
		Status(req.Status),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, o)
}

func (h *Handler) AddKeyResult(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateKeyResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	kr, err := h.service.AddKeyResult(
		r.Context(),
		scope,
		chi.URLParam(r, "okrID"),
		req,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.Created(w, kr)
}

func (h *Handler) UpdateKeyResult(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateKeyResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	kr, err := h.service.UpdateKeyResult(
		r.Context(),
		scope,
		chi.URLParam(r, "keyResultID"),
		req,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, kr)
}

func (h *Handler) DeleteKeyResult(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	err := h.service.DeleteKeyResult(
		r.Context(),
		scope,
		chi.URLParam(r, "keyResultID"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	kr, err := h.service.UpdateProgress(
		r.Context(),
		scope,
		chi.URLParam(r, "keyResultID"),
		req,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, kr)
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
		core.NotFound(w, "okr")
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
