package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aligulzar729/shield/internal/platform/httpx"
)

// Handler wires JSON endpoints for role and permission management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     string
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard string) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers rbac routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/permissions", h.listPermissions)
	r.Get("/api/roles/{name}/permissions", h.rolePermissions)
	r.Post("/api/roles", h.createRole)
}

type permissionResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Guard string `json:"guard"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.Permissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = permissionResponse{ID: p.ID, Name: p.Name, Guard: p.Guard}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	role, err := h.service.repo.FindRole(r.Context(), name, h.guard, nil)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: role %s", httpx.ErrNotFound, name))
			return
		}
		h.logger.Error("find role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	names, err := h.service.RolePermissionNames(r.Context(), role)
	if err != nil {
		h.logger.Error("role permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role.Name, "permissions": names})
}

type createRoleRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	TenantID *int64 `json:"tenant_id"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	role, err := h.service.FindOrCreateRole(r.Context(), req.Name, h.guard, req.TenantID)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":    role.ID,
		"name":  role.Name,
		"guard": role.Guard,
	})
}
