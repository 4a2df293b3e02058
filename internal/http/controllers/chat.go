package controllers

import (
	"net/http"
	"strings"

	"github.com/musclepoints/spot-backend/internal/agent"
	"github.com/musclepoints/spot-backend/internal/http/dto"
	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
)

// ChatController proxya los turnos de conversación al runtime del agente.
type ChatController struct {
	agent *agent.Client
}

func NewChatController(a *agent.Client) *ChatController {
	return &ChatController{agent: a}
}

// Chat envía un mensaje al agente. POST /api/chat (autenticado).
func (c *ChatController) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("message es requerido"))
		return
	}

	res, err := c.agent.Invoke(r.Context(), req.SessionID, req.Message)
	if err != nil {
		logger.From(r.Context()).Error("agent invoke failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamUnavailable.WithDetail("el agente no está disponible"))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ChatResponse{
		Response:  res.Response,
		SessionID: res.SessionID,
	})
}

// Info describe el agente configurado. GET /api/chat/info (autenticado).
func (c *ChatController) Info(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.agent.Info())
}
