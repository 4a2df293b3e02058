package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/musclepoints/spot-backend/internal/http/dto"
	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/http/services/users"
	"github.com/musclepoints/spot-backend/internal/observability/metrics"
)

// UsersController expone la administración de usuarios invitados (Supervisor).
type UsersController struct {
	users *users.Service
}

func NewUsersController(svc *users.Service) *UsersController {
	return &UsersController{users: svc}
}

// List lista todos los usuarios invitados. GET /auth/users.
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.users.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out := make([]dto.UserResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.UserFromInvitation(&list[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// UpdateRole cambia el rol de un usuario. PATCH /auth/users/{email}/role.
func (c *UsersController) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoleRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	inv, err := c.users.UpdateRole(r.Context(), chi.URLParam(r, "email"), req.Role)
	if err != nil {
		httperrors.WriteError(w, mapUsersError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.UserFromInvitation(inv))
}

// UpdateStatus cambia el estado de un usuario. PATCH /auth/users/{email}/status.
func (c *UsersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	inv, err := c.users.UpdateStatus(r.Context(), chi.URLParam(r, "email"), req.Status)
	if err != nil {
		httperrors.WriteError(w, mapUsersError(err))
		return
	}
	if req.Status == "revoked" {
		metrics.ObserveInvitation("revoke")
	}
	helpers.WriteJSON(w, http.StatusOK, dto.UserFromInvitation(inv))
}

func mapUsersError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, users.ErrNotFound):
		return httperrors.ErrUserNotFound
	case errors.Is(err, users.ErrInvalidRole):
		return httperrors.ErrInvalidRole
	case errors.Is(err, users.ErrInvalidStatus):
		return httperrors.ErrInvalidStatus
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
