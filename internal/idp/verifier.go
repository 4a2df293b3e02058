package idp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	// ttlSafetyMargin compensa drift de reloj entre el browser y el IdP al
	// calcular el MaxAge de la cookie.
	ttlSafetyMargin = 60 * time.Second

	// ttlDefaultSeconds se usa cuando el token no trae claim exp.
	ttlDefaultSeconds = 3600
)

// Claims son los claims del id_token ya verificados. Efímeros: viven lo que
// dura el request y nunca se persisten.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Groups        []string // lista intacta, orden estable
	Issuer        string
	Audience      string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	TokenUse      string
	Raw           jwtv5.MapClaims
}

// Verifier valida firma, issuer, audience y expiración de id_tokens RS256.
// La validación de at_hash se omite a propósito: el backend nunca maneja el
// access token junto al id_token.
type Verifier struct {
	keys        *KeyCache
	issuer      string
	audience    string
	groupsClaim string
	now         func() time.Time
}

func NewVerifier(keys *KeyCache, cfg Config) *Verifier {
	return &Verifier{
		keys:        keys,
		issuer:      cfg.Issuer(),
		audience:    cfg.ClientID,
		groupsClaim: cfg.groupsClaim(),
		now:         time.Now,
	}
}

// Verify valida el token crudo y retorna los claims.
// Nunca loguea el token.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	kid, err := unverifiedKID(raw)
	if err != nil {
		return nil, err
	}

	key, err := v.keys.VerificationKey(ctx, kid)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrUnknownKey
		}
		return nil, err
	}

	// Los claims se validan a mano abajo: la expiración tiene que ser un
	// check explícito, no un default de la librería.
	tok, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithoutClaimsValidation(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrBadSignature
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}

	if iss, _ := claims["iss"].(string); iss != v.issuer {
		return nil, ErrIssuerMismatch
	}
	if !audienceMatches(claims["aud"], v.audience) {
		return nil, ErrAudienceMismatch
	}

	now := v.now()
	expf, ok := claims["exp"].(float64)
	if !ok || !now.Before(time.Unix(int64(expf), 0)) {
		return nil, ErrTokenExpired
	}

	out := &Claims{
		Subject:       strClaim(claims, "sub"),
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Groups:        v.extractGroups(claims),
		Issuer:        v.issuer,
		Audience:      v.audience,
		ExpiresAt:     time.Unix(int64(expf), 0),
		TokenUse:      strClaim(claims, "token_use"),
		Raw:           claims,
	}
	if iatf, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iatf), 0)
	}
	return out, nil
}

// EstimatedTTLSeconds estima la vida útil restante del token SIN verificar la
// firma. Solo sirve para sincronizar el MaxAge de la cookie; jamás para
// decisiones de confianza.
func (v *Verifier) EstimatedTTLSeconds(raw string) int {
	parser := jwtv5.NewParser()
	tok, _, err := parser.ParseUnverified(raw, jwtv5.MapClaims{})
	if err != nil {
		return ttlDefaultSeconds
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return ttlDefaultSeconds
	}
	expf, ok := claims["exp"].(float64)
	if !ok {
		return ttlDefaultSeconds
	}

	remaining := time.Unix(int64(expf), 0).Sub(v.now()) - ttlSafetyMargin
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// unverifiedKID decodifica el header del JWT sin verificar para extraer el kid.
func unverifiedKID(raw string) (string, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrMalformedToken
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return "", ErrMalformedToken
	}
	if header.Alg != "RS256" || header.Kid == "" {
		return "", ErrMalformedToken
	}
	return header.Kid, nil
}

func audienceMatches(aud any, expected string) bool {
	switch a := aud.(type) {
	case string:
		return a == expected
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == expected {
				return true
			}
		}
	}
	return false
}

func (v *Verifier) extractGroups(claims jwtv5.MapClaims) []string {
	raw, ok := claims[v.groupsClaim].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		if s, ok := g.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
