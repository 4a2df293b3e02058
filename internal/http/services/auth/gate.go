// Package auth implementa el gate de autorización: la cadena de decisiones
// que convierte un id_token crudo en un Principal autorizado o en un rechazo
// con razón precisa.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

// Errores del gate. El controller los mapea a HTTP: los dos primeros son 401
// (falla de autenticación), el resto 403 (falla de autorización).
var (
	ErrMissingToken       = errors.New("auth: missing token")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrEmailDomainDenied  = errors.New("auth: email domain not allowed")
	ErrNoAllowedGroup     = errors.New("auth: no allowed group")
	ErrNotInvited         = errors.New("auth: not in allowlist")
	ErrInactiveInvitation = errors.New("auth: invitation not active")
	ErrRoleMismatch       = errors.New("auth: insufficient role")
)

// TokenVerifier es lo que el gate necesita del verificador de id_tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*idp.Claims, error)
}

// Principal es la identidad autorizada de un request. Se arma por request a
// partir del token y la allowlist; nunca se cachea entre requests.
type Principal struct {
	Email  string
	Groups []string
	Role   core.Role
	Claims *idp.Claims
}

// Gate encadena verificación criptográfica, política de dominio/grupos y
// lookup de allowlist. El orden de los checks es fijo: se corta en el primer
// fallo y la razón reportada es la de ese check.
type Gate struct {
	verifier      TokenVerifier
	repo          core.InvitationRepository
	allowedDomain string   // sufijo, sin el '@'
	allowedGroups []string
}

func NewGate(verifier TokenVerifier, repo core.InvitationRepository, allowedDomain string, allowedGroups []string) *Gate {
	return &Gate{
		verifier:      verifier,
		repo:          repo,
		allowedDomain: strings.TrimPrefix(strings.ToLower(allowedDomain), "@"),
		allowedGroups: allowedGroups,
	}
}

// Authorize corre la cadena completa para un token crudo.
//
//	token verificado → dominio del email → intersección de grupos →
//	allowlist (status active) → jerarquía de roles
//
// `required` es el rol mínimo de la ruta; el rol efectivo del usuario sale de
// la base, no del token.
func (g *Gate) Authorize(ctx context.Context, rawToken string, required core.Role) (*Principal, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		// La razón fina (firma, issuer, exp...) queda en el log; al cliente
		// le llega un 401 uniforme.
		logger.From(ctx).Debug("token verification failed", logger.Err(err))
		return nil, ErrInvalidToken
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if !g.domainAllowed(email) {
		return nil, ErrEmailDomainDenied
	}
	if !g.groupAllowed(claims.Groups) {
		return nil, ErrNoAllowedGroup
	}

	inv, err := g.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotInvited
		}
		return nil, err
	}
	if inv.Status != core.StatusActive {
		return nil, ErrInactiveInvitation
	}
	if !inv.Role.Satisfies(required) {
		return nil, ErrRoleMismatch
	}

	return &Principal{
		Email:  email,
		Groups: claims.Groups,
		Role:   inv.Role,
		Claims: claims,
	}, nil
}

// domainAllowed exige que el email termine en "@<dominio>". Sin dominio
// configurado no pasa nadie: fail-closed.
func (g *Gate) domainAllowed(email string) bool {
	if g.allowedDomain == "" {
		return false
	}
	return strings.HasSuffix(email, "@"+g.allowedDomain)
}

// groupAllowed exige intersección no vacía entre los grupos del token y los
// grupos permitidos. La comparación es exacta, sensible a mayúsculas.
func (g *Gate) groupAllowed(groups []string) bool {
	for _, have := range groups {
		for _, want := range g.allowedGroups {
			if have == want {
				return true
			}
		}
	}
	return false
}
