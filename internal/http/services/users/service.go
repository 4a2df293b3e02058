// Package users administra los usuarios invitados: listado, cambio de rol y
// cambio de estado, con sincronización best-effort hacia el user pool.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

var (
	ErrNotFound      = errors.New("users: user not found")
	ErrInvalidRole   = errors.New("users: invalid role")
	ErrInvalidStatus = errors.New("users: invalid status")
)

// Service aplica cambios primero en la DB (fuente de verdad de la allowlist)
// y después los refleja en el pool. La sincronización nunca revierte el
// cambio local: si el pool falla queda un warning en el log y el próximo
// request igual se autoriza contra la DB.
type Service struct {
	repo  core.InvitationRepository
	admin *idp.AdminClient
}

func NewService(repo core.InvitationRepository, admin *idp.AdminClient) *Service {
	return &Service{repo: repo, admin: admin}
}

// List retorna todos los usuarios invitados.
func (s *Service) List(ctx context.Context) ([]core.Invitation, error) {
	return s.repo.List(ctx)
}

// UpdateRole cambia el rol en la DB y reemplaza los grupos en el pool.
func (s *Service) UpdateRole(ctx context.Context, rawEmail, rawRole string) (*core.Invitation, error) {
	em := strings.ToLower(strings.TrimSpace(rawEmail))
	role, err := core.ParseRole(rawRole)
	if err != nil {
		return nil, ErrInvalidRole
	}

	if err := s.repo.SetRole(ctx, em, role); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.syncGroups(ctx, em, role)
	return s.repo.GetByEmail(ctx, em)
}

// UpdateStatus cambia el estado en la DB y habilita/deshabilita en el pool.
// Revocar además cierra todas las sesiones del usuario.
func (s *Service) UpdateStatus(ctx context.Context, rawEmail, rawStatus string) (*core.Invitation, error) {
	em := strings.ToLower(strings.TrimSpace(rawEmail))
	status := core.InviteStatus(rawStatus)
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.SetStatus(ctx, em, status); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.syncStatus(ctx, em, status)
	return s.repo.GetByEmail(ctx, em)
}

func (s *Service) syncGroups(ctx context.Context, email string, role core.Role) {
	if !s.admin.Enabled() {
		return
	}
	log := logger.From(ctx).With(logger.Email(email))

	username, err := s.admin.FindUsernameByEmail(ctx, email)
	if err != nil {
		// Usuario invitado que todavía no hizo sign-up: no hay nada que
		// sincronizar, el grupo se asigna post-confirmación.
		if idp.IsNotFound(err) {
			log.Debug("pool sync skipped, user not in pool yet")
			return
		}
		log.Warn("pool group sync failed", logger.Err(err))
		return
	}
	if err := s.admin.SetGroups(ctx, username, []string{string(role)}); err != nil {
		log.Warn("pool group sync failed", logger.Err(err))
	}
}

func (s *Service) syncStatus(ctx context.Context, email string, status core.InviteStatus) {
	if !s.admin.Enabled() {
		return
	}
	log := logger.From(ctx).With(logger.Email(email))

	username, err := s.admin.FindUsernameByEmail(ctx, email)
	if err != nil {
		if idp.IsNotFound(err) {
			log.Debug("pool sync skipped, user not in pool yet")
			return
		}
		log.Warn("pool status sync failed", logger.Err(err))
		return
	}

	switch status {
	case core.StatusRevoked:
		if err := s.admin.Disable(ctx, username); err != nil {
			log.Warn("pool disable failed", logger.Err(err))
		}
		if err := s.admin.GlobalSignOut(ctx, username); err != nil {
			log.Warn("pool global sign-out failed", logger.Err(err))
		}
	case core.StatusActive, core.StatusPending:
		if err := s.admin.Enable(ctx, username); err != nil {
			log.Warn("pool enable failed", logger.Err(err))
		}
	}
}
