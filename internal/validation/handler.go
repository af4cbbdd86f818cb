// AngelaMos | 2026
// handler.go

package validation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northstarhq/northstar/internal/core"
)

type ValidateRequest struct {
	Entity string         `json:"entity"`
	Data   map[string]any `json:"data"`
}

type Handler struct {
	validator *Validator
}

func NewHandler(validator *Validator) *Handler {
	return &Handler{validator: validator}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/validate", h.Validate)
	})
}

// Validate runs the rule table for clients that fast-fail forms before
// submitting. A failing result is still a 200; services re-run the same
// rules before persisting, so this endpoint is advisory.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if req.Entity == "" {
		core.BadRequest(w, "entity is required")
		return
	}

	if req.Data == nil {
		core.BadRequest(w, "data is required")
		return
	}

	result, err := h.validator.Validate(req.Entity, req.Data)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "unknown entity")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, result)
}
