// Package invite implementa el ciclo de vida de las invitaciones a la
// allowlist: emisión, activación por token de un solo uso y revocación.
package invite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/musclepoints/spot-backend/internal/email"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/security/token"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

var (
	ErrInvalidEmail = errors.New("invite: invalid email")
	ErrDomainDenied = errors.New("invite: email domain not allowed")
	ErrInvalidRole  = errors.New("invite: invalid role")

	// ErrInvalidOrExpiredToken cubre token inexistente, vencido y perdedor de
	// carrera de activación. Un solo error para las tres causas: el cliente no
	// debe poder distinguirlas.
	ErrInvalidOrExpiredToken = errors.New("invite: invalid or expired token")
)

// tokenBytes produce tokens de 256 bits de entropía.
const tokenBytes = 32

// Service orquesta invitaciones. El email de invitación es best-effort: una
// falla de SMTP nunca revierte el registro ya persistido.
type Service struct {
	repo          core.InvitationRepository
	sender        email.Sender
	allowedDomain string
	acceptURL     string // base del link de activación en el frontend
	window        time.Duration
	now           func() time.Time
}

func NewService(repo core.InvitationRepository, sender email.Sender, allowedDomain, acceptURL string, window time.Duration) *Service {
	return &Service{
		repo:          repo,
		sender:        sender,
		allowedDomain: strings.TrimPrefix(strings.ToLower(allowedDomain), "@"),
		acceptURL:     acceptURL,
		window:        window,
		now:           time.Now,
	}
}

// Result es el resultado de emitir una invitación.
type Result struct {
	Invitation *core.Invitation
	InviteURL  string
	EmailSent  bool
}

// Invite crea o re-emite una invitación. Siempre genera token y expiración
// nuevos; el status se conserva solo si ya era active (re-invitar a alguien
// activo no lo degrada a pending).
func (s *Service) Invite(ctx context.Context, rawEmail, rawRole, invitedBy string) (*Result, error) {
	em := strings.ToLower(strings.TrimSpace(rawEmail))
	if em == "" || !strings.Contains(em, "@") {
		return nil, ErrInvalidEmail
	}
	if s.allowedDomain != "" && !strings.HasSuffix(em, "@"+s.allowedDomain) {
		return nil, ErrDomainDenied
	}
	role, err := core.ParseRole(rawRole)
	if err != nil {
		return nil, ErrInvalidRole
	}

	tok, err := token.GenerateOpaqueToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("invite: generating token: %w", err)
	}
	expiresAt := s.now().Add(s.window)

	inv, err := s.repo.Upsert(ctx, em, role, invitedBy, tok, expiresAt)
	if err != nil {
		return nil, err
	}

	inviteURL := s.buildInviteURL(tok)
	sent := s.sendInviteEmail(ctx, em, inviteURL)

	return &Result{Invitation: inv, InviteURL: inviteURL, EmailSent: sent}, nil
}

// Activate consume un token de activación. Idempotente para registros ya
// activos: re-visitar el link con el mismo token responde éxito y solo limpia
// el token. El flip pending→active es un compare-and-swap por token, así dos
// activaciones concurrentes no pueden ganar las dos.
func (s *Service) Activate(ctx context.Context, rawToken string) (*core.Invitation, error) {
	tok := strings.TrimSpace(rawToken)
	if tok == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	inv, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	if inv.TokenExpired(s.now()) {
		return nil, ErrInvalidOrExpiredToken
	}

	if inv.Status == core.StatusActive {
		// Ya activo: consumir el token sin tocar el status.
		ok, err := s.repo.ClearToken(ctx, inv.Email, tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return s.resolveLostRace(ctx, inv.Email)
		}
		logger.From(ctx).Info("invitation already active, token consumed",
			logger.Email(inv.Email))
		inv.Token, inv.TokenExpiresAt = nil, nil
		return inv, nil
	}

	ok, err := s.repo.ActivateByToken(ctx, inv.Email, tok)
	if err != nil {
		return nil, err
	}
	if !ok {
		// La fila cambió entre el read y el write. Si una activación
		// concurrente con el mismo token ganó la carrera, el perdedor
		// responde el mismo éxito idempotente; cualquier otro cambio
		// (re-invitación con token nuevo) invalida este token.
		return s.resolveLostRace(ctx, inv.Email)
	}

	logger.From(ctx).Info("invitation activated",
		logger.Email(inv.Email), logger.Role(string(inv.Role)))

	inv.Status = core.StatusActive
	inv.Token, inv.TokenExpiresAt = nil, nil
	return inv, nil
}

// resolveLostRace decide el resultado de un CAS perdido: si la fila quedó
// activa con el token ya consumido, es el mismo éxito idempotente; en
// cualquier otro estado el token de este caller ya no vale.
func (s *Service) resolveLostRace(ctx context.Context, email string) (*core.Invitation, error) {
	cur, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	if cur.Status == core.StatusActive && cur.Token == nil {
		return cur, nil
	}
	return nil, ErrInvalidOrExpiredToken
}

// Revoke marca la invitación como revocada. No toca los campos de token: un
// token vigente sobre un registro revocado activa de vuelta si se consume
// antes de vencer, y eso es decisión del que revoca re-invitar o no.
func (s *Service) Revoke(ctx context.Context, rawEmail string) (*core.Invitation, error) {
	em := strings.ToLower(strings.TrimSpace(rawEmail))
	if err := s.repo.SetStatus(ctx, em, core.StatusRevoked); err != nil {
		return nil, err
	}
	return s.repo.GetByEmail(ctx, em)
}

func (s *Service) buildInviteURL(tok string) string {
	return s.acceptURL + "?token=" + url.QueryEscape(tok)
}

// sendInviteEmail envía el email sin bloquear el resultado de la operación.
func (s *Service) sendInviteEmail(ctx context.Context, to, inviteURL string) bool {
	expDays := int(s.window.Hours() / 24)
	if expDays < 1 {
		expDays = 1
	}
	subject, htmlBody, textBody := email.BuildInvite(to, inviteURL, expDays)
	if err := s.sender.Send(to, subject, htmlBody, textBody); err != nil {
		logger.From(ctx).Warn("invite email failed",
			logger.Email(to), logger.Err(err))
		return false
	}
	return true
}
