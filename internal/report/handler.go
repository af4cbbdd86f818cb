// AngelaMos | 2026
// handler.go

package report

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
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
	r.Route("/reports", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/dashboard", h.Dashboard)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	dashboard, err := h.service.Dashboard(r.Context(), scope)
	if err != nil {
		h.respondError(w, err)
		return
	}

	core.OK(w, dashboard)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
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
