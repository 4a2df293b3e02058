// Package session administra la cookie de sesión que transporta el id_token
// al frontend. El backend no guarda sesiones: la cookie ES la sesión, y su
// vida útil se alinea con la expiración del token.
package session

import (
	"net/http"

	"github.com/musclepoints/spot-backend/internal/http/helpers"
)

// TTLEstimator calcula los segundos de vida restantes de un token.
type TTLEstimator interface {
	EstimatedTTLSeconds(raw string) int
}

// CookieManager emite y borra la cookie de sesión. Issue y Clear comparten
// exactamente los mismos atributos (nombre, path, domain, flags); solo cambian
// valor y MaxAge.
type CookieManager struct {
	opts helpers.CookieOptions
	ttl  TTLEstimator
}

func NewCookieManager(opts helpers.CookieOptions, ttl TTLEstimator) *CookieManager {
	return &CookieManager{opts: opts, ttl: ttl}
}

// Issue setea la cookie de sesión con el token y MaxAge derivado de su exp.
func (m *CookieManager) Issue(w http.ResponseWriter, rawToken string) {
	maxAge := m.ttl.EstimatedTTLSeconds(rawToken)
	http.SetCookie(w, helpers.BuildCookie(m.opts, rawToken, maxAge))
}

// Clear borra la cookie de sesión.
func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, helpers.BuildDeletionCookie(m.opts))
}

// Name expone el nombre de la cookie (lo usa la extracción de token).
func (m *CookieManager) Name() string { return m.opts.Name }
