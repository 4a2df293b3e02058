// Package controllers contiene los handlers HTTP. Los controllers validan el
// transporte, delegan en los services y mapean sus errores a AppError.
package controllers

import (
	"errors"
	"net/http"

	"github.com/musclepoints/spot-backend/internal/http/dto"
	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/http/middlewares"
	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/http/services/invite"
	"github.com/musclepoints/spot-backend/internal/http/services/session"
	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/observability/metrics"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

// AuthController maneja el intercambio de código, la sesión y el ciclo de
// vida de invitaciones.
type AuthController struct {
	idp     *idp.Client
	gate    *auth.Gate
	cookies *session.CookieManager
	invites *invite.Service
}

func NewAuthController(idpClient *idp.Client, gate *auth.Gate, cookies *session.CookieManager, invites *invite.Service) *AuthController {
	return &AuthController{idp: idpClient, gate: gate, cookies: cookies, invites: invites}
}

// Exchange canjea el authorization code, autoriza al usuario contra la
// allowlist y emite la cookie de sesión. POST /auth/exchange.
func (c *AuthController) Exchange(w http.ResponseWriter, r *http.Request) {
	var req dto.ExchangeRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code es requerido"))
		return
	}

	tokens, err := c.idp.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		logger.From(r.Context()).Warn("code exchange failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("el código de autorización no es válido"))
		return
	}

	// El rol mínimo del login es Agent; las rutas elevadas re-chequean el rol.
	principal, err := c.gate.Authorize(r.Context(), tokens.IDToken, core.RoleAgent)
	if err != nil {
		httperrors.WriteError(w, mapGateError(err))
		return
	}

	c.cookies.Issue(w, tokens.IDToken)

	logger.From(r.Context()).Info("session issued",
		logger.Email(principal.Email), logger.Role(string(principal.Role)))

	helpers.WriteJSON(w, http.StatusOK, dto.ExchangeResponse{
		OK:     true,
		Email:  principal.Email,
		Role:   string(principal.Role),
		Groups: principal.Groups,
	})
}

// Logout borra la cookie de sesión. POST /auth/logout.
// Siempre responde ok: borrar una sesión inexistente no es un error.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	c.cookies.Clear(w)
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

// Invite emite o re-emite una invitación. POST /auth/invite (Supervisor).
func (c *AuthController) Invite(w http.ResponseWriter, r *http.Request) {
	var req dto.InviteRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	invitedBy := ""
	if p, ok := middlewares.PrincipalFrom(r.Context()); ok {
		invitedBy = p.Email
	}

	res, err := c.invites.Invite(r.Context(), req.Email, req.Role, invitedBy)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrInvalidEmail):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email inválido"))
		case errors.Is(err, invite.ErrDomainDenied):
			httperrors.WriteError(w, httperrors.ErrEmailDomainDenied)
		case errors.Is(err, invite.ErrInvalidRole):
			httperrors.WriteError(w, httperrors.ErrInvalidRole)
		default:
			httperrors.WriteError(w, err)
		}
		return
	}

	metrics.ObserveInvitation("invite")

	expiresAt := ""
	if res.Invitation.TokenExpiresAt != nil {
		expiresAt = res.Invitation.TokenExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.InviteResponse{
		OK:        true,
		Email:     res.Invitation.Email,
		Role:      string(res.Invitation.Role),
		Status:    string(res.Invitation.Status),
		InviteURL: res.InviteURL,
		ExpiresAt: expiresAt,
		EmailSent: res.EmailSent,
	})
}

// Accept consume un token de activación. POST /auth/accept?token=...
// Endpoint público: el usuario todavía no tiene sesión cuando lo usa.
func (c *AuthController) Accept(w http.ResponseWriter, r *http.Request) {
	inv, err := c.invites.Activate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, invite.ErrInvalidOrExpiredToken) {
			httperrors.WriteError(w, httperrors.ErrInviteTokenInvalid)
			return
		}
		httperrors.WriteError(w, err)
		return
	}

	metrics.ObserveInvitation("accept")

	helpers.WriteJSON(w, http.StatusOK, dto.AcceptResponse{
		OK:      true,
		Email:   inv.Email,
		Role:    string(inv.Role),
		Status:  string(inv.Status),
		Message: "invitación activada",
	})
}

// mapGateError traduce los sentinels del gate a errores HTTP. Mismo mapeo que
// el middleware RequireAuth: 401 para autenticación, 403 con razón para
// autorización.
func mapGateError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return httperrors.ErrTokenMissing
	case errors.Is(err, auth.ErrInvalidToken):
		return httperrors.ErrTokenInvalid
	case errors.Is(err, auth.ErrEmailDomainDenied):
		return httperrors.ErrEmailDomainDenied
	case errors.Is(err, auth.ErrNoAllowedGroup):
		return httperrors.ErrNoAllowedGroup
	case errors.Is(err, auth.ErrNotInvited):
		return httperrors.ErrNotInvited
	case errors.Is(err, auth.ErrInactiveInvitation):
		return httperrors.ErrInactiveInvitation
	case errors.Is(err, auth.ErrRoleMismatch):
		return httperrors.ErrRoleMismatch
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
