// AngelaMos | 2026
// handler.go

package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes registers audit endpoints. Any authenticated user may
// record; reading the trail is admin-gated in the service.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, scoped func(http.Handler) http.Handler,
) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Post("/", h.Record)
		r.Get("/", h.List)
	})
}

// Record queues a single audit entry and returns immediately. The entry is
// written in the background; a full buffer drops it rather than blocking.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	h.service.Record(r.Context(), scope, req)

	core.Accepted(w, map[string]string{"status": "queued"})
}

// List returns recorded audit entries for the caller's tenant.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	if scope == nil {
		core.Unauthorized(w, "")
		return
	}

	params := ListParams{
		Page:        parseIntQuery(r, "page", 1),
		PageSize:    parseIntQuery(r, "page_size", 50),
		Action:      r.URL.Query().Get("action"),
		EntityType:  r.URL.Query().Get("entity_type"),
		EntityID:    r.URL.Query().Get("entity_id"),
		ActorUserID: r.URL.Query().Get("actor_user_id"),
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}

	logs, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden),
			errors.Is(err, core.ErrNoRoleAssigned):
			core.Forbidden(w, "audit log access requires admin role")
		case errors.Is(err, core.ErrUnauthorized):
			core.Unauthorized(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Paginated(w, logs, params.Page, params.PageSize, total)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
