package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/store/core"
)

func TestExtractTokenPrefersBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token-del-header")
	req.AddCookie(&http.Cookie{Name: "id_token", Value: "token-de-cookie"})

	assert.Equal(t, "token-del-header", ExtractToken(req, "id_token"))
}

func TestExtractTokenFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "id_token", Value: "token-de-cookie"})

	assert.Equal(t, "token-de-cookie", ExtractToken(req, "id_token"))
}

func TestExtractTokenEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req, "id_token"))

	// Un scheme que no es Bearer no cuenta.
	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, ExtractToken(req, "id_token"))
}

type stubVerifier struct {
	claims *idp.Claims
	err    error
}

func (s *stubVerifier) Verify(context.Context, string) (*idp.Claims, error) {
	return s.claims, s.err
}

type stubRepo struct {
	core.InvitationRepository
	inv *core.Invitation
}

func (s *stubRepo) GetByEmail(context.Context, string) (*core.Invitation, error) {
	if s.inv == nil {
		return nil, core.ErrNotFound
	}
	return s.inv, nil
}

func testGate(v auth.TokenVerifier, inv *core.Invitation) *auth.Gate {
	return auth.NewGate(v, &stubRepo{inv: inv}, "musclepoints.com", []string{"Agent", "Supervisor"})
}

func okHandler(t *testing.T, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantEmail, p.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAllows(t *testing.T) {
	inv := &core.Invitation{Email: "ana@musclepoints.com", Role: core.RoleAgent, Status: core.StatusActive}
	gate := testGate(&stubVerifier{claims: &idp.Claims{
		Email:  "ana@musclepoints.com",
		Groups: []string{"Agent"},
	}}, inv)

	h := RequireAuth(gate, "id_token", core.RoleAgent)(okHandler(t, "ana@musclepoints.com"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthStatusMapping(t *testing.T) {
	activeInv := &core.Invitation{Email: "ana@musclepoints.com", Role: core.RoleAgent, Status: core.StatusActive}
	goodClaims := &idp.Claims{Email: "ana@musclepoints.com", Groups: []string{"Agent"}}

	cases := []struct {
		name     string
		gate     *auth.Gate
		token    string
		required core.Role
		want     int
	}{
		{
			name:     "sin token es 401",
			gate:     testGate(&stubVerifier{claims: goodClaims}, activeInv),
			token:    "",
			required: core.RoleAgent,
			want:     http.StatusUnauthorized,
		},
		{
			name:     "token inválido es 401",
			gate:     testGate(&stubVerifier{err: idp.ErrTokenExpired}, activeInv),
			token:    "tok",
			required: core.RoleAgent,
			want:     http.StatusUnauthorized,
		},
		{
			name:     "no invitado es 403",
			gate:     testGate(&stubVerifier{claims: goodClaims}, nil),
			token:    "tok",
			required: core.RoleAgent,
			want:     http.StatusForbidden,
		},
		{
			name:     "rol insuficiente es 403",
			gate:     testGate(&stubVerifier{claims: goodClaims}, activeInv),
			token:    "tok",
			required: core.RoleSupervisor,
			want:     http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireAuth(tc.gate, "id_token", tc.required)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
