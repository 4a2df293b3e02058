// Package agent es el cliente del runtime del agente conversacional.
// Es un wrapper request/response sin estado propio: la sesión vive en el
// runtime, acá solo se propaga el session id.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/musclepoints/spot-backend/internal/observability/logger"
)

// Config agrupa los parámetros del runtime del agente.
type Config struct {
	BaseURL    string
	AgentID    string
	AliasID    string
	ReadTimeout time.Duration // default 120s: el agente puede tardar
	MaxRetries int           // default 3
	RetryDelay time.Duration // default 2s
}

// InvokeResult es la respuesta del agente para un turno de conversación.
type InvokeResult struct {
	Response  string
	SessionID string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.ReadTimeout},
	}
}

// Invoke envía un mensaje del usuario al agente. Si sessionID viene vacío se
// genera uno nuevo para iniciar la conversación.
func (c *Client) Invoke(ctx context.Context, sessionID, input string) (*InvokeResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := logger.From(ctx).With(
		logger.Component("agent.Client"),
		logger.SessionID(sessionID),
	)

	endpoint := fmt.Sprintf("%s/agents/%s/aliases/%s/sessions/%s/text",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.AgentID),
		url.PathEscape(c.cfg.AliasID),
		url.PathEscape(sessionID),
	)

	body, err := json.Marshal(map[string]string{"inputText": input})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			log.Warn("retrying agent invoke", logger.Int("attempt", attempt), logger.Err(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		res, err := c.invokeOnce(ctx, endpoint, body)
		if err == nil {
			res.SessionID = sessionID
			return res, nil
		}
		lastErr = err
		// No reintentar errores del cliente (4xx) ni cancelaciones.
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("agent invoke: %w", lastErr)
}

type httpStatusError struct{ status int }

func (e *httpStatusError) Error() string { return fmt.Sprintf("http %d", e.status) }

func retryable(err error) bool {
	if se, ok := err.(*httpStatusError); ok {
		return se.status >= 500
	}
	// errores de red/timeout
	return true
}

func (c *Client) invokeOnce(ctx context.Context, endpoint string, body []byte) (*InvokeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &httpStatusError{status: resp.StatusCode}
	}

	var out struct {
		Completion string `json:"completion"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &InvokeResult{Response: out.Completion}, nil
}

// Info describe el agente configurado (endpoint de diagnóstico).
type Info struct {
	AgentID string `json:"agent_id"`
	AliasID string `json:"agent_alias_id"`
	BaseURL string `json:"base_url"`
}

func (c *Client) Info() Info {
	return Info{AgentID: c.cfg.AgentID, AliasID: c.cfg.AliasID, BaseURL: c.cfg.BaseURL}
}
