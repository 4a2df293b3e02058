package e2e

import (
	"context"
	"sync"
	"time"

	"github.com/musclepoints/spot-backend/internal/store/core"
)

// memRepo reemplaza Postgres en e2e con la misma semántica de fila única y
// compare-and-swap por token.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]*core.Invitation
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]*core.Invitation{}}
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*core.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memRepo) GetByToken(_ context.Context, token string) (*core.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.rows {
		if inv.Token != nil && *inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) Upsert(_ context.Context, email string, role core.Role, invitedBy, token string, expiresAt time.Time) (*core.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	inv, ok := m.rows[email]
	if !ok {
		inv = &core.Invitation{Email: email, Status: core.StatusPending, CreatedAt: now}
		m.rows[email] = inv
	} else if inv.Status != core.StatusActive {
		inv.Status = core.StatusPending
	}
	inv.Role = role
	inv.InvitedBy = invitedBy
	inv.Token = &token
	inv.TokenExpiresAt = &expiresAt
	inv.UpdatedAt = now
	cp := *inv
	return &cp, nil
}

func (m *memRepo) ActivateByToken(_ context.Context, email, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[email]
	if !ok || inv.Token == nil || *inv.Token != token {
		return false, nil
	}
	inv.Status = core.StatusActive
	inv.Token, inv.TokenExpiresAt = nil, nil
	return true, nil
}

func (m *memRepo) ClearToken(_ context.Context, email, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[email]
	if !ok || inv.Token == nil || *inv.Token != token {
		return false, nil
	}
	inv.Token, inv.TokenExpiresAt = nil, nil
	return true, nil
}

func (m *memRepo) SetStatus(_ context.Context, email string, status core.InviteStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[email]
	if !ok {
		return core.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (m *memRepo) SetRole(_ context.Context, email string, role core.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[email]
	if !ok {
		return core.ErrNotFound
	}
	inv.Role = role
	return nil
}

func (m *memRepo) List(_ context.Context) ([]core.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Invitation, 0, len(m.rows))
	for _, inv := range m.rows {
		out = append(out, *inv)
	}
	return out, nil
}
