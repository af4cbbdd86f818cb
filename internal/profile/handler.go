// AngelaMos | 2026
// handler.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/rbac"
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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, scoped func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
	})
}

// RegisterAdminRoutes registers account management endpoints. The scoped
// middleware resolves roles and tenant; service methods decide per call.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, scoped, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(scoped)
		r.Use(adminOnly)

		r.Get("/", h.ListAccounts)
		r.Post("/", h.CreateAccount)
		r.Get("/{userID}", h.GetAccount)
		r.Put("/{userID}", h.UpdateAccount)
		r.Put("/{userID}/tenant", h.AssignTenant)
		r.Post("/{userID}/roles", h.GrantRole)
		r.Delete("/{userID}/roles/{role}", h.RevokeRole)
		r.Post("/{userID}/deactivate", h.Deactivate)
		r.Post("/{userID}/reactivate", h.Reactivate)
		r.Delete("/{userID}", h.DeleteAccount)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	account, err := h.service.GetMe(r.Context(), scope)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "authentication required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.UpdateMe(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "authentication required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	if err := h.service.DeleteMe(r.Context(), scope); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "authentication required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

// ListAccounts returns a paginated account list. Non-root callers are
// pinned to their own tenant regardless of the tenant_id filter.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	params := ListAccountsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Inactive: r.URL.Query().Get("inactive") == "true",
	}
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		params.TenantID = &tenantID
	}

	accounts, total, err := h.service.List(r.Context(), scope, params)
	if err != nil {
		h.respondAuthzError(w, err)
		return
	}

	core.Paginated(
		w,
		ToAccountResponseList(accounts),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.CreateAccount(r.Context(), scope, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.NewAppError(
				core.ErrDuplicateKey,
				"email already registered",
				http.StatusConflict,
				"DUPLICATE_EMAIL",
			))
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid account request")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.Created(w, ToAccountResponse(account))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	account, err := h.service.Get(r.Context(), scope, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), scope, userID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) AssignTenant(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	var req AssignTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	account, err := h.service.AssignTenant(
		r.Context(),
		scope,
		userID,
		req.TenantID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	var req GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role, err := rbac.Parse(req.Role)
	if err != nil {
		core.BadRequest(w, "invalid role")
		return
	}

	account, err := h.service.GrantRole(r.Context(), scope, userID, role)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	role, err := rbac.Parse(chi.URLParam(r, "role"))
	if err != nil {
		core.BadRequest(w, "invalid role")
		return
	}

	account, err := h.service.RevokeRole(r.Context(), scope, userID, role)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "account must keep at least one role")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role assignment")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := h.service.Deactivate(r.Context(), scope, userID); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "cannot change own account status")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := h.service.Reactivate(r.Context(), scope, userID); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "cannot change own account status")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := h.service.Delete(r.Context(), scope, userID); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "cannot change own account status")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		h.respondAuthzError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) respondAuthzError(w http.ResponseWriter, err error) {
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
