package e2e

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/musclepoints/spot-backend/internal/agent"
	"github.com/musclepoints/spot-backend/internal/cache"
	"github.com/musclepoints/spot-backend/internal/email"
	"github.com/musclepoints/spot-backend/internal/http/controllers"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/http/router"
	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/http/services/invite"
	"github.com/musclepoints/spot-backend/internal/http/services/session"
	"github.com/musclepoints/spot-backend/internal/http/services/users"
	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

/* ============================================================================
   Entorno e2e: backend completo in-process con IdP y agente simulados.
============================================================================ */

type env struct {
	t    *testing.T
	srv  *httptest.Server
	repo *memRepo
	key  *rsa.PrivateKey
	cfg  idp.Config

	mu          sync.Mutex
	nextIDToken string // lo que devuelve el próximo canje de código
}

const (
	testKID    = "kid-e2e"
	testDomain = "musclepoints.com"
	apiKey     = "clave-interna-e2e"
)

func newEnv(t *testing.T) *env {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	e := &env{t: t, repo: newMemRepo(), key: key}

	// IdP simulado: JWKS + endpoint de tokens.
	idpMux := http.NewServeMux()
	idpMux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": testKID,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	idpMux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") == "codigo-invalido" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		e.mu.Lock()
		tok := e.nextIDToken
		e.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id_token":     tok,
			"access_token": "acceso",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})
	idpSrv := httptest.NewServer(idpMux)
	t.Cleanup(idpSrv.Close)

	e.cfg = idp.Config{
		Region:      "us-east-1",
		UserPoolID:  "us-east-1_E2E",
		ClientID:    "spot-web",
		Domain:      idpSrv.URL,
		RedirectURI: "http://localhost/cb",
	}

	// Agente simulado: eco del input.
	agentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			InputText string `json:"inputText"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"completion": "eco: " + in.InputText})
	}))
	t.Cleanup(agentSrv.Close)

	keys := idp.NewKeyCache(idpSrv.URL + "/jwks")
	verifier := idp.NewVerifier(keys, e.cfg)
	idpClient := idp.NewClient(e.cfg)
	adminClient := idp.NewAdminClient("", "") // sin fachada admin en e2e

	gate := auth.NewGate(verifier, e.repo, testDomain, []string{"Agent", "Supervisor"})
	cookies := session.NewCookieManager(helpers.CookieOptions{
		Name:     "id_token",
		SameSite: http.SameSiteLaxMode,
	}, verifier)
	invites := invite.NewService(e.repo, email.Noop{}, testDomain,
		"https://spot.example/invite/accept", 7*24*time.Hour)
	usersSvc := users.NewService(e.repo, adminClient)
	agentClient := agent.New(agent.Config{
		BaseURL: agentSrv.URL,
		AgentID: "agente",
		AliasID: "alias",
	})
	memCache := cache.NewMemory("e2e:")

	handler := router.New(router.Deps{
		Auth:       controllers.NewAuthController(idpClient, gate, cookies, invites),
		Users:      controllers.NewUsersController(usersSvc),
		Internal:   controllers.NewInternalController(e.repo, memCache, apiKey),
		Chat:       controllers.NewChatController(agentClient),
		Health:     controllers.NewHealthController(nil, memCache),
		Gate:       gate,
		CookieName: "id_token",
	})

	e.srv = httptest.NewServer(handler)
	t.Cleanup(e.srv.Close)
	return e
}

// signIDToken firma un id_token válido para el IdP simulado.
func (e *env) signIDToken(email string, groups []string, exp time.Time) string {
	e.t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
		"iss":            e.cfg.Issuer(),
		"aud":            e.cfg.ClientID,
		"sub":            "sub-" + email,
		"email":          email,
		"email_verified": true,
		"cognito:groups": groups,
		"token_use":      "id",
		"iat":            time.Now().Unix(),
		"exp":            exp.Unix(),
	})
	tok.Header["kid"] = testKID
	raw, err := tok.SignedString(e.key)
	if err != nil {
		e.t.Fatal(err)
	}
	return raw
}

// stageIDToken deja el token listo para el próximo POST /auth/exchange.
func (e *env) stageIDToken(raw string) {
	e.mu.Lock()
	e.nextIDToken = raw
	e.mu.Unlock()
}

// seedActive inserta un usuario ya activo en la allowlist.
func (e *env) seedActive(email string, role core.Role) {
	_, err := e.repo.Upsert(context.Background(), email, role, "seed", "tok-"+email, time.Now().Add(time.Hour))
	if err != nil {
		e.t.Fatal(err)
	}
	if err := e.repo.SetStatus(context.Background(), email, core.StatusActive); err != nil {
		e.t.Fatal(err)
	}
}

func newHTTPClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func mustJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}
