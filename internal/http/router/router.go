// Package router arma el árbol de rutas del servidor.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/musclepoints/spot-backend/internal/http/controllers"
	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/middlewares"
	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/observability/metrics"
	"github.com/musclepoints/spot-backend/internal/rate"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

// Deps son las dependencias ya construidas que el router cablea.
type Deps struct {
	Auth     *controllers.AuthController
	Users    *controllers.UsersController
	Internal *controllers.InternalController
	Chat     *controllers.ChatController
	Health   *controllers.HealthController

	Gate       *auth.Gate
	CookieName string

	CORSOrigins []string

	// Limiters opcionales; nil desactiva el rate limit de esa ruta.
	AcceptLimiter    rate.Limiter
	AllowlistLimiter rate.Limiter
}

// New construye el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.Logging())
	r.Use(middlewares.Recover())
	r.Use(middlewares.CORS(d.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Live)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Method(http.MethodPost, "/exchange",
			instrument("/auth/exchange", http.HandlerFunc(d.Auth.Exchange)))
		r.Method(http.MethodPost, "/logout",
			instrument("/auth/logout", http.HandlerFunc(d.Auth.Logout)))

		// Público, pero con rate limit: el token ES la credencial.
		r.Method(http.MethodPost, "/accept",
			instrument("/auth/accept",
				limited(d.AcceptLimiter, http.HandlerFunc(d.Auth.Accept))))

		// Administración: solo supervisores.
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth(d.Gate, d.CookieName, core.RoleSupervisor))

			r.Method(http.MethodPost, "/invite",
				instrument("/auth/invite", http.HandlerFunc(d.Auth.Invite)))
			r.Method(http.MethodGet, "/users",
				instrument("/auth/users", http.HandlerFunc(d.Users.List)))
			r.Method(http.MethodPatch, "/users/{email}/role",
				instrument("/auth/users/{email}/role", http.HandlerFunc(d.Users.UpdateRole)))
			r.Method(http.MethodPatch, "/users/{email}/status",
				instrument("/auth/users/{email}/status", http.HandlerFunc(d.Users.UpdateStatus)))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/database/health",
			instrument("/api/database/health", http.HandlerFunc(d.Health.Database)))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth(d.Gate, d.CookieName, core.RoleAgent))

			r.Method(http.MethodPost, "/chat",
				instrument("/api/chat", http.HandlerFunc(d.Chat.Chat)))
			r.Method(http.MethodGet, "/chat/info",
				instrument("/api/chat/info", http.HandlerFunc(d.Chat.Info)))
		})
	})

	r.Method(http.MethodGet, "/internal/allowlist/check",
		instrument("/internal/allowlist/check",
			limited(d.AllowlistLimiter, http.HandlerFunc(d.Internal.AllowlistCheck))))

	return r
}

func instrument(pattern string, h http.Handler) http.Handler {
	return metrics.WithMetrics(pattern, h)
}

func limited(l rate.Limiter, h http.Handler) http.Handler {
	if l == nil {
		return h
	}
	return middlewares.RateLimit(l)(h)
}
