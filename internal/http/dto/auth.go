// Package dto define los contratos JSON de la API.
package dto

import (
	"time"

	"github.com/musclepoints/spot-backend/internal/store/core"
)

// ExchangeRequest es el body de POST /auth/exchange.
type ExchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeResponse confirma la sesión emitida. El token viaja solo en la
// cookie, nunca en el body.
type ExchangeResponse struct {
	OK     bool     `json:"ok"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Groups []string `json:"groups,omitempty"`
}

// InviteRequest es el body de POST /auth/invite.
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteResponse es la respuesta de una invitación emitida.
type InviteResponse struct {
	OK        bool   `json:"ok"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	InviteURL string `json:"invite_url"`
	ExpiresAt string `json:"token_expires_at"`
	EmailSent bool   `json:"email_sent"`
}

// AcceptResponse es la respuesta de una activación exitosa.
type AcceptResponse struct {
	OK      bool   `json:"ok"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LogoutResponse confirma el cierre de sesión.
type LogoutResponse struct {
	OK bool `json:"ok"`
}

// UserResponse representa un usuario invitado en el listado y los updates.
type UserResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	InvitedBy string    `json:"invited_by,omitempty"`
	HasToken  bool      `json:"has_pending_token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserFromInvitation mapea el registro de dominio al contrato JSON.
// El token nunca se serializa; solo se expone si existe uno vigente.
func UserFromInvitation(inv *core.Invitation) UserResponse {
	return UserResponse{
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		InvitedBy: inv.InvitedBy,
		HasToken:  inv.Token != nil,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

// UpdateRoleRequest es el body de PATCH /auth/users/{email}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateStatusRequest es el body de PATCH /auth/users/{email}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AllowlistCheckResponse es la respuesta del check interno de allowlist.
type AllowlistCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Role    string `json:"role,omitempty"`
	Status  string `json:"status,omitempty"`
}

// ChatRequest es el body de POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse es la respuesta del agente.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}
