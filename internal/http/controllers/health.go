package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/musclepoints/spot-backend/internal/cache"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/store/pg"
)

// HealthController expone los endpoints de salud.
type HealthController struct {
	store *pg.Store
	cache cache.Client
}

func NewHealthController(store *pg.Store, c cache.Client) *HealthController {
	return &HealthController{store: store, cache: c}
}

// Live es el liveness probe. GET /healthz. No toca dependencias.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Database reporta el estado de las dependencias de datos.
// GET /api/database/health.
func (c *HealthController) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out := map[string]string{"postgres": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		out["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			out["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	helpers.WriteJSON(w, status, out)
}
