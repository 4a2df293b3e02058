package idp

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Region:     "us-east-1",
		UserPoolID: "us-east-1_TEST",
		ClientID:   "client-abc",
	}
}

func genKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func jwksFor(keys map[string]*rsa.PrivateKey) []byte {
	doc := jwksDoc{}
	for kid, k := range keys {
		doc.Keys = append(doc.Keys, jwk{
			Kty: "RSA",
			Alg: "RS256",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(k.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.PublicKey.E)).Bytes()),
		})
	}
	b, _ := json.Marshal(doc)
	return b
}

func jwksServer(t *testing.T, keys map[string]*rsa.PrivateKey) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksFor(keys))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func newTestVerifier(t *testing.T, keys map[string]*rsa.PrivateKey, now time.Time) *Verifier {
	t.Helper()
	srv := jwksServer(t, keys)
	v := NewVerifier(NewKeyCache(srv.URL), testConfig())
	v.now = func() time.Time { return now }
	return v
}

func baseClaims(cfg Config, now time.Time) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss":            cfg.Issuer(),
		"aud":            cfg.ClientID,
		"sub":            "user-123",
		"email":          "ana@musclepoints.com",
		"email_verified": true,
		"cognito:groups": []string{"Agent"},
		"token_use":      "id",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestVerifyValidToken(t *testing.T) {
	key := genKey(t)
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	raw := signToken(t, key, "kid-1", baseClaims(testConfig(), now))

	claims, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "ana@musclepoints.com", claims.Email)
	assert.Equal(t, []string{"Agent"}, claims.Groups)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestVerifyWrongSignature(t *testing.T) {
	key := genKey(t)
	other := genKey(t)
	now := time.Now()
	// El JWKS publica kid-1 con la clave buena; el token lo firma otra clave.
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	raw := signToken(t, other, "kid-1", baseClaims(testConfig(), now))

	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyUnknownKID(t *testing.T) {
	key := genKey(t)
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	raw := signToken(t, key, "kid-desconocido", baseClaims(testConfig(), now))

	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestVerifyIssuerMismatch(t *testing.T) {
	key := genKey(t)
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	claims := baseClaims(testConfig(), now)
	claims["iss"] = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_OTRO"
	raw := signToken(t, key, "kid-1", claims)

	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestVerifyAudienceMismatch(t *testing.T) {
	key := genKey(t)
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	claims := baseClaims(testConfig(), now)
	claims["aud"] = "otro-cliente"
	raw := signToken(t, key, "kid-1", claims)

	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerifyAudienceList(t *testing.T) {
	key := genKey(t)
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	claims := baseClaims(testConfig(), now)
	claims["aud"] = []string{"otro", testConfig().ClientID}
	raw := signToken(t, key, "kid-1", claims)

	_, err := v.Verify(context.Background(), raw)
	assert.NoError(t, err)
}

// La expiración es estricta: exp == now ya es inválido, exp > now es válido.
func TestVerifyExpiryBoundary(t *testing.T) {
	key := genKey(t)
	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name    string
		exp     int64
		wantErr error
	}{
		{"vencido", now.Add(-time.Minute).Unix(), ErrTokenExpired},
		{"exactamente ahora", now.Unix(), ErrTokenExpired},
		{"un segundo en el futuro", now.Add(time.Second).Unix(), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)
			claims := baseClaims(testConfig(), now)
			claims["exp"] = tc.exp
			raw := signToken(t, key, "kid-1", claims)

			_, err := v.Verify(context.Background(), raw)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifyRejectsNonRS256(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{}, now)

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, baseClaims(testConfig(), now))
	tok.Header["kid"] = "kid-1"
	raw, err := tok.SignedString([]byte("secreto"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerifyMalformed(t *testing.T) {
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{}, time.Now())

	for _, raw := range []string{"", "no-es-un-jwt", "a.b", "a.b.c.d"} {
		_, err := v.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "raw=%q", raw)
	}
}

func TestEstimatedTTLSeconds(t *testing.T) {
	key := genKey(t)
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, map[string]*rsa.PrivateKey{"kid-1": key}, now)

	mkToken := func(exp any) string {
		claims := baseClaims(testConfig(), now)
		if exp == nil {
			delete(claims, "exp")
		} else {
			claims["exp"] = exp
		}
		return signToken(t, key, "kid-1", claims)
	}

	t.Run("resta el margen de seguridad", func(t *testing.T) {
		// exp en 1h → 3600 - 60 = 3540
		assert.Equal(t, 3540, v.EstimatedTTLSeconds(mkToken(now.Add(time.Hour).Unix())))
	})

	t.Run("piso en cero", func(t *testing.T) {
		// exp en 30s → 30 - 60 < 0 → 0
		assert.Equal(t, 0, v.EstimatedTTLSeconds(mkToken(now.Add(30*time.Second).Unix())))
	})

	t.Run("sin exp usa el default", func(t *testing.T) {
		assert.Equal(t, ttlDefaultSeconds, v.EstimatedTTLSeconds(mkToken(nil)))
	})

	t.Run("token ilegible usa el default", func(t *testing.T) {
		assert.Equal(t, ttlDefaultSeconds, v.EstimatedTTLSeconds("basura"))
	})
}
