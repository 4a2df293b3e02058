package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/musclepoints/spot-backend/internal/store/core"
)

const invitationCols = `email, role, status, token, token_expires_at, invited_by, created_at, updated_at`

func scanInvitation(row pgx.Row) (*core.Invitation, error) {
	var inv core.Invitation
	err := row.Scan(
		&inv.Email, &inv.Role, &inv.Status,
		&inv.Token, &inv.TokenExpiresAt,
		&inv.InvitedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*core.Invitation, error) {
	const q = `SELECT ` + invitationCols + ` FROM invited_users WHERE email = $1`
	return scanInvitation(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) GetByToken(ctx context.Context, token string) (*core.Invitation, error) {
	const q = `SELECT ` + invitationCols + ` FROM invited_users WHERE token = $1`
	return scanInvitation(s.pool.QueryRow(ctx, q, token))
}

// Upsert regenera token/expiración en una sola sentencia. El CASE conserva
// `active` al re-invitar (no degrada un usuario ya activo) y resetea a
// `pending` desde cualquier otro estado.
func (s *Store) Upsert(ctx context.Context, email string, role core.Role, invitedBy, token string, expiresAt time.Time) (*core.Invitation, error) {
	const q = `
		INSERT INTO invited_users (email, role, status, token, token_expires_at, invited_by, created_at, updated_at)
		VALUES ($1, $2, 'pending', $3, $4, $5, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			role             = EXCLUDED.role,
			token            = EXCLUDED.token,
			token_expires_at = EXCLUDED.token_expires_at,
			invited_by       = EXCLUDED.invited_by,
			status           = CASE WHEN invited_users.status = 'active'
			                        THEN invited_users.status
			                        ELSE 'pending' END,
			updated_at       = NOW()
		RETURNING ` + invitationCols
	return scanInvitation(s.pool.QueryRow(ctx, q, email, role, token, expiresAt, invitedBy))
}

// ActivateByToken es el write condicionado por token: si otra activación
// concurrente ya consumió el token, RowsAffected es 0 y retornamos false.
func (s *Store) ActivateByToken(ctx context.Context, email, token string) (bool, error) {
	const q = `
		UPDATE invited_users
		SET status = 'active', token = NULL, token_expires_at = NULL, updated_at = NOW()
		WHERE email = $1 AND token = $2`
	ct, err := s.pool.Exec(ctx, q, email, token)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) ClearToken(ctx context.Context, email, token string) (bool, error) {
	const q = `
		UPDATE invited_users
		SET token = NULL, token_expires_at = NULL, updated_at = NOW()
		WHERE email = $1 AND token = $2`
	ct, err := s.pool.Exec(ctx, q, email, token)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) SetStatus(ctx context.Context, email string, status core.InviteStatus) error {
	const q = `UPDATE invited_users SET status = $2, updated_at = NOW() WHERE email = $1`
	ct, err := s.pool.Exec(ctx, q, email, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) SetRole(ctx context.Context, email string, role core.Role) error {
	const q = `UPDATE invited_users SET role = $2, updated_at = NOW() WHERE email = $1`
	ct, err := s.pool.Exec(ctx, q, email, role)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Invitation, error) {
	const q = `SELECT ` + invitationCols + ` FROM invited_users ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Invitation
	for rows.Next() {
		var inv core.Invitation
		if err := rows.Scan(
			&inv.Email, &inv.Role, &inv.Status,
			&inv.Token, &inv.TokenExpiresAt,
			&inv.InvitedBy, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
