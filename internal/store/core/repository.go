package core

import (
	"context"
	"time"
)

// InvitationRepository define las operaciones de persistencia sobre la
// allowlist. Todas las mutaciones son single-row y atómicas a nivel de fila:
// no hay transacciones multi-step ni locking a nivel de aplicación (el CAS
// por token resuelve las carreras de activación).
type InvitationRepository interface {
	// GetByEmail busca el registro por email (ya normalizado a minúsculas).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Invitation, error)

	// GetByToken busca el registro cuyo token de activación coincide.
	// Retorna ErrNotFound si ningún registro tiene ese token.
	GetByToken(ctx context.Context, token string) (*Invitation, error)

	// Upsert crea o re-emite una invitación con token y expiración nuevos.
	// Si el registro existe, regenera token/expiración in place; el status
	// se conserva si es `active` y se resetea a `pending` en cualquier otro
	// caso. Si no existe, crea con status `pending`.
	Upsert(ctx context.Context, email string, role Role, invitedBy, token string, expiresAt time.Time) (*Invitation, error)

	// ActivateByToken flipea status a `active` y limpia los campos de token,
	// condicionado a que el token siga coincidiendo al momento del write
	// (compare-and-swap). Retorna false si la fila cambió por debajo.
	ActivateByToken(ctx context.Context, email, token string) (bool, error)

	// ClearToken limpia los campos de token sin tocar el status, con el mismo
	// CAS por token. Es la rama idempotente para registros ya activos.
	ClearToken(ctx context.Context, email, token string) (bool, error)

	// SetStatus actualiza el status incondicionalmente. No toca los campos
	// de token.
	SetStatus(ctx context.Context, email string, status InviteStatus) error

	// SetRole actualiza el rol. Retorna ErrNotFound si el email no existe.
	SetRole(ctx context.Context, email string, role Role) error

	// List retorna todos los registros ordenados por fecha de creación
	// descendente.
	List(ctx context.Context) ([]Invitation, error)
}
