package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/musclepoints/spot-backend/internal/store/core"
)

// 04 - Ciclo de vida completo de una invitación por HTTP: invitar, activar
// con el link, loguearse, revocar.
func Test_04_Invitation_Lifecycle(t *testing.T) {
	e := newEnv(t)
	sup := "sup@musclepoints.com"
	e.seedActive(sup, core.RoleSupervisor)
	supToken := e.signIDToken(sup, []string{"Supervisor"}, time.Now().Add(time.Hour))

	do := func(method, path string, body any) *http.Response {
		var rd *bytes.Reader
		if body != nil {
			b, _ := json.Marshal(body)
			rd = bytes.NewReader(b)
		} else {
			rd = bytes.NewReader(nil)
		}
		req, _ := http.NewRequest(method, e.srv.URL+path, rd)
		req.Header.Set("Authorization", "Bearer "+supToken)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	nuevo := "nuevo@musclepoints.com"
	var inviteToken string

	t.Run("el supervisor invita", func(t *testing.T) {
		resp := do(http.MethodPost, "/auth/invite", map[string]string{"email": nuevo, "role": "Agent"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status=%d", resp.StatusCode)
		}

		var out struct {
			Status    string `json:"status"`
			InviteURL string `json:"invite_url"`
		}
		mustJSON(t, resp, &out)
		if out.Status != "pending" {
			t.Fatalf("status=%s", out.Status)
		}

		u, err := url.Parse(out.InviteURL)
		if err != nil {
			t.Fatal(err)
		}
		inviteToken = u.Query().Get("token")
		if inviteToken == "" {
			t.Fatal("invite_url sin token")
		}
	})

	t.Run("el invitado activa con el link", func(t *testing.T) {
		resp, err := http.Post(e.srv.URL+"/auth/accept?token="+url.QueryEscape(inviteToken), "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}

		var out struct {
			Email  string `json:"email"`
			Status string `json:"status"`
		}
		mustJSON(t, resp, &out)
		if out.Email != nuevo || out.Status != "active" {
			t.Fatalf("out=%+v", out)
		}
	})

	t.Run("re-usar el token consumido es 400", func(t *testing.T) {
		resp, err := http.Post(e.srv.URL+"/auth/accept?token="+url.QueryEscape(inviteToken), "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})

	t.Run("activado, el invitado puede usar la API", func(t *testing.T) {
		tok := e.signIDToken(nuevo, []string{"Agent"}, time.Now().Add(time.Hour))
		req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/chat/info", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})

	t.Run("revocado, el mismo token de sesión deja de servir", func(t *testing.T) {
		resp := do(http.MethodPatch, "/auth/users/"+url.PathEscape(nuevo)+"/status",
			map[string]string{"status": "revoked"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}
		resp.Body.Close()

		tok := e.signIDToken(nuevo, []string{"Agent"}, time.Now().Add(time.Hour))
		req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/chat/info", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp2, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp2.Body.Close()
		if resp2.StatusCode != http.StatusForbidden {
			t.Fatalf("status=%d", resp2.StatusCode)
		}
	})
}

// 05 - Token de invitación inválido o con basura: siempre el mismo 400
// genérico.
func Test_05_Invitation_BadTokens(t *testing.T) {
	e := newEnv(t)

	for _, tok := range []string{"", "no-existe", strings.Repeat("x", 64)} {
		resp, err := http.Post(e.srv.URL+"/auth/accept?token="+url.QueryEscape(tok), "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		var out struct {
			Code string `json:"code"`
		}
		mustJSON(t, resp, &out)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("token=%q status=%d", tok, resp.StatusCode)
		}
		if out.Code != "INVITE_TOKEN_INVALID" {
			t.Fatalf("token=%q code=%s", tok, out.Code)
		}
	}
}

// 06 - Check interno de allowlist: API key y veredicto.
func Test_06_Internal_Allowlist(t *testing.T) {
	e := newEnv(t)
	e.seedActive("activa@musclepoints.com", core.RoleAgent)

	check := func(key, email string) (*http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet,
			e.srv.URL+"/internal/allowlist/check?email="+url.QueryEscape(email), nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		return http.DefaultClient.Do(req)
	}

	resp, err := check("", "activa@musclepoints.com")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("sin key: status=%d", resp.StatusCode)
	}

	resp, err = check(apiKey, "activa@musclepoints.com")
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Allowed bool   `json:"allowed"`
		Role    string `json:"role"`
	}
	mustJSON(t, resp, &out)
	if !out.Allowed || out.Role != "Agent" {
		t.Fatalf("out=%+v", out)
	}

	resp, err = check(apiKey, "nadie@musclepoints.com")
	if err != nil {
		t.Fatal(err)
	}
	out = struct {
		Allowed bool   `json:"allowed"`
		Role    string `json:"role"`
	}{}
	mustJSON(t, resp, &out)
	if out.Allowed {
		t.Fatal("nadie@ no debería estar permitido")
	}
}
