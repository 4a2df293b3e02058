package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/musclepoints/spot-backend/internal/store/core"
)

// 01 - Flujo de sesión: canje de código, cookie, acceso a rutas protegidas
// y logout.
func Test_01_Session_Flow(t *testing.T) {
	e := newEnv(t)
	c := newHTTPClient(t)
	sup := "sup@musclepoints.com"
	e.seedActive(sup, core.RoleSupervisor)

	exchange := func(code string) *http.Response {
		body, _ := json.Marshal(map[string]string{"code": code})
		resp, err := c.Post(e.srv.URL+"/auth/exchange", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	t.Run("exchange emite cookie de sesión", func(t *testing.T) {
		e.stageIDToken(e.signIDToken(sup, []string{"Supervisor"}, time.Now().Add(time.Hour)))

		resp := exchange("codigo-ok")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}

		var out struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		mustJSON(t, resp, &out)
		if out.Email != sup || out.Role != "Supervisor" {
			t.Fatalf("out=%+v", out)
		}

		found := false
		for _, ck := range resp.Cookies() {
			if ck.Name == "id_token" && ck.Value != "" && ck.HttpOnly {
				found = true
				if ck.MaxAge <= 0 || ck.MaxAge > 3600 {
					t.Fatalf("maxage=%d", ck.MaxAge)
				}
			}
		}
		if !found {
			t.Fatal("no llegó la cookie id_token")
		}
	})

	t.Run("la cookie alcanza para rutas protegidas", func(t *testing.T) {
		resp, err := c.Get(e.srv.URL + "/auth/users")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})

	t.Run("logout borra la cookie", func(t *testing.T) {
		resp, err := c.Post(e.srv.URL+"/auth/logout", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}

		// El jar ya no manda la cookie: la ruta protegida vuelve a 401.
		resp, err = c.Get(e.srv.URL + "/auth/users")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})

	t.Run("código inválido es 400", func(t *testing.T) {
		resp := exchange("codigo-invalido")
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})

	t.Run("usuario no invitado no entra aunque el token sea válido", func(t *testing.T) {
		e.stageIDToken(e.signIDToken("extranio@musclepoints.com", []string{"Agent"}, time.Now().Add(time.Hour)))

		resp := exchange("codigo-ok")
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status=%d", resp.StatusCode)
		}
	})
}

// 02 - Jerarquía de roles sobre las rutas: Agent no ve administración pero
// sí el chat; Supervisor ve ambas.
func Test_02_Role_Hierarchy_Routes(t *testing.T) {
	e := newEnv(t)
	ag := "agente@musclepoints.com"
	e.seedActive(ag, core.RoleAgent)

	token := e.signIDToken(ag, []string{"Agent"}, time.Now().Add(time.Hour))

	get := func(path string) int {
		req, _ := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := get("/auth/users"); got != http.StatusForbidden {
		t.Fatalf("/auth/users como Agent: status=%d", got)
	}
	if got := get("/api/chat/info"); got != http.StatusOK {
		t.Fatalf("/api/chat/info como Agent: status=%d", got)
	}
}

// 03 - El chat proxya al runtime del agente y propaga el session id.
func Test_03_Chat_Proxy(t *testing.T) {
	e := newEnv(t)
	ag := "agente@musclepoints.com"
	e.seedActive(ag, core.RoleAgent)
	token := e.signIDToken(ag, []string{"Agent"}, time.Now().Add(time.Hour))

	body, _ := json.Marshal(map[string]string{"message": "hola"})
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/api/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var out struct {
		Response  string `json:"response"`
		SessionID string `json:"session_id"`
	}
	mustJSON(t, resp, &out)
	if out.Response != "eco: hola" {
		t.Fatalf("response=%q", out.Response)
	}
	if out.SessionID == "" {
		t.Fatal("falta session_id")
	}
}
