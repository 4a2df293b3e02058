package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AdminClient habla con la fachada de administración del user pool
// (el servicio interno que envuelve las operaciones admin del IdP).
// Todas las operaciones son best-effort para los callers: un fallo acá no
// debe revertir el cambio ya aplicado en la DB.
type AdminClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewAdminClient(baseURL, apiKey string) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled indica si la sincronización admin está configurada.
func (a *AdminClient) Enabled() bool {
	return a != nil && a.baseURL != ""
}

func (a *AdminClient) do(ctx context.Context, method, path string, body any, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("X-Admin-API-Key", a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("idp admin: %w", errNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("idp admin: http %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var errNotFound = fmt.Errorf("user not found")

// IsNotFound indica si el error es un usuario inexistente en el pool
// (usuario invitado que todavía no hizo sign-up).
func IsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), errNotFound.Error())
}

// FindUsernameByEmail resuelve el username interno del pool para un email.
func (a *AdminClient) FindUsernameByEmail(ctx context.Context, email string) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	q := url.Values{"email": {email}}
	if err := a.do(ctx, http.MethodGet, "/users/lookup?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

// Groups lista los grupos actuales del usuario en el pool.
func (a *AdminClient) Groups(ctx context.Context, username string) ([]string, error) {
	var out struct {
		Groups []string `json:"groups"`
	}
	if err := a.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username)+"/groups", nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// SetGroups reemplaza los grupos del usuario por los dados.
func (a *AdminClient) SetGroups(ctx context.Context, username string, groups []string) error {
	body := map[string]any{"groups": groups}
	return a.do(ctx, http.MethodPut, "/users/"+url.PathEscape(username)+"/groups", body, nil)
}

// Disable deshabilita al usuario en el pool (no puede iniciar sesión).
func (a *AdminClient) Disable(ctx context.Context, username string) error {
	return a.do(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/disable", nil, nil)
}

// Enable habilita al usuario en el pool.
func (a *AdminClient) Enable(ctx context.Context, username string) error {
	return a.do(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/enable", nil, nil)
}

// GlobalSignOut revoca todas las sesiones activas del usuario.
func (a *AdminClient) GlobalSignOut(ctx context.Context, username string) error {
	return a.do(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/global-sign-out", nil, nil)
}
