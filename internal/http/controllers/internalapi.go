package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/musclepoints/spot-backend/internal/cache"
	"github.com/musclepoints/spot-backend/internal/http/dto"
	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

// allowlistCacheTTL acota el retraso máximo entre una revocación y el momento
// en que los servicios internos dejan de ver al usuario como permitido.
const allowlistCacheTTL = 30 * time.Second

// InternalController expone el check de allowlist para servicios internos
// (el webhook de pre-sign-up del pool). Autenticación por API key compartida,
// no por id_token: acá no hay usuario final.
type InternalController struct {
	repo   core.InvitationRepository
	cache  cache.Client
	apiKey string
}

func NewInternalController(repo core.InvitationRepository, c cache.Client, apiKey string) *InternalController {
	return &InternalController{repo: repo, cache: c, apiKey: apiKey}
}

// AllowlistCheck responde si un email puede autenticarse.
// GET /internal/allowlist/check?email=...
func (c *InternalController) AllowlistCheck(w http.ResponseWriter, r *http.Request) {
	if !c.validKey(r.Header.Get("X-API-Key")) {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email es requerido"))
		return
	}

	if resp, ok := c.cached(r, email); ok {
		helpers.WriteJSON(w, http.StatusOK, resp)
		return
	}

	resp := dto.AllowlistCheckResponse{}
	inv, err := c.repo.GetByEmail(r.Context(), email)
	switch {
	case err == nil:
		resp.Allowed = inv.Status == core.StatusActive
		resp.Role = string(inv.Role)
		resp.Status = string(inv.Status)
	case errors.Is(err, core.ErrNotFound):
		// email desconocido: allowed=false, sin detalle
	default:
		httperrors.WriteError(w, err)
		return
	}

	c.store(r, email, resp)
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// validKey compara en tiempo constante. Sin key configurada el endpoint queda
// cerrado.
func (c *InternalController) validKey(got string) bool {
	if c.apiKey == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.apiKey), []byte(got)) == 1
}

func (c *InternalController) cached(r *http.Request, email string) (dto.AllowlistCheckResponse, bool) {
	var resp dto.AllowlistCheckResponse
	if c.cache == nil {
		return resp, false
	}
	raw, err := c.cache.Get(r.Context(), "allowlist:"+email)
	if err != nil {
		return resp, false
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return resp, false
	}
	return resp, true
}

func (c *InternalController) store(r *http.Request, email string, resp dto.AllowlistCheckResponse) {
	if c.cache == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.cache.Set(r.Context(), "allowlist:"+email, string(b), allowlistCacheTTL); err != nil {
		logger.From(r.Context()).Debug("allowlist cache write failed", logger.Err(err))
	}
}
