package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/observability/metrics"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

// ExtractToken busca el id_token primero en el header Authorization (Bearer)
// y después en la cookie de sesión. El header gana si vienen los dos.
func ExtractToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth corre el gate de autorización con el rol mínimo dado y deja el
// Principal en el contexto. 401 para fallas de autenticación, 403 con razón
// específica para fallas de autorización.
func RequireAuth(gate *auth.Gate, cookieName string, required core.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractToken(r, cookieName)

			principal, err := gate.Authorize(r.Context(), raw, required)
			if err != nil {
				appErr := gateError(err)
				metrics.ObserveAuthDecision(appErr.Code)
				httperrors.WriteError(w, appErr)
				return
			}
			metrics.ObserveAuthDecision("ALLOWED")

			ctx := logger.ToContext(r.Context(), logger.From(r.Context()).With(
				logger.Email(principal.Email),
				logger.Role(string(principal.Role)),
			))
			next.ServeHTTP(w, withPrincipal(r.WithContext(ctx), principal))
		})
	}
}

func gateError(err error) *httperrors.AppError {
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
