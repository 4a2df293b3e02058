package core

import "time"

// InviteStatus es el estado de una invitación en la allowlist.
type InviteStatus string

const (
	StatusPending InviteStatus = "pending"
	StatusActive  InviteStatus = "active"
	StatusRevoked InviteStatus = "revoked"
)

// Valid indica si el estado es uno de los conocidos.
func (s InviteStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRevoked:
		return true
	}
	return false
}

func (s InviteStatus) String() string { return string(s) }

// Invitation es el registro persistido de la allowlist, uno por email (PK).
//
// Invariantes:
//   - Token y TokenExpiresAt van siempre juntos: ambos nil o ambos no-nil.
//   - Una activación exitosa deja Status=active y limpia ambos campos de token.
//   - Solo Status=active habilita autenticación.
type Invitation struct {
	Email          string
	Role           Role
	Status         InviteStatus
	Token          *string
	TokenExpiresAt *time.Time
	InvitedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TokenExpired indica si el token de activación ya venció al instante `now`.
// Un registro sin token se considera vencido (no hay nada que activar).
func (i *Invitation) TokenExpired(now time.Time) bool {
	if i.Token == nil || i.TokenExpiresAt == nil {
		return true
	}
	return i.TokenExpiresAt.Before(now)
}
