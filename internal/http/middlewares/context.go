package middlewares

import (
	"context"
	"net/http"

	"github.com/musclepoints/spot-backend/internal/http/services/auth"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyPrincipal
)

// RequestIDFrom retorna el request id del contexto, o "" si no hay.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// PrincipalFrom retorna el principal autenticado del contexto. El segundo
// valor es false en rutas sin RequireAuth.
func PrincipalFrom(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*auth.Principal)
	return p, ok
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func withPrincipal(r *http.Request, p *auth.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyPrincipal, p))
}
