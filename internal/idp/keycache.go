package idp

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/musclepoints/spot-backend/internal/observability/metrics"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwksDoc struct {
	Keys []jwk `json:"keys"`
}

// KeyCache descarga y cachea el JWKS del IdP. El set completo vive en memoria
// sin expiración; un cache miss dispara exactamente un re-fetch antes de
// fallar con ErrKeyNotFound. El set del proveedor es append-mostly, así que
// un refresh nunca pisa datos frescos con una respuesta más vieja (se compara
// el instante de inicio del fetch contra el último aplicado).
type KeyCache struct {
	url  string
	http *http.Client

	group singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeyCache crea el cache apuntando al JWKS dado. Inyectable a propósito:
// los tests le pasan un httptest.Server con un set fijo.
func NewKeyCache(jwksURL string) *KeyCache {
	return &KeyCache{
		url:  jwksURL,
		http: &http.Client{Timeout: 5 * time.Second},
		keys: make(map[string]*rsa.PublicKey),
	}
}

// VerificationKey resuelve la clave pública para un kid. En miss fuerza un
// refresh y reintenta una sola vez.
func (c *KeyCache) VerificationKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if k := c.lookup(kid); k != nil {
		return k, nil
	}

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	if k := c.lookup(kid); k != nil {
		return k, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (c *KeyCache) lookup(kid string) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[kid]
}

// refresh coalesce llamadas concurrentes via singleflight; cada caller en
// miss dispara como mucho un fetch de red.
func (c *KeyCache) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("jwks", func() (any, error) {
		return nil, c.fetch(ctx)
	})
	if err != nil {
		metrics.ObserveJWKSRefresh("error")
	} else {
		metrics.ObserveJWKSRefresh("ok")
	}
	return err
}

func (c *KeyCache) fetch(ctx context.Context) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jwks fetch: http %d", resp.StatusCode)
	}

	var doc jwksDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}

	parsed := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if !strings.EqualFold(k.Kty, "RSA") || k.Kid == "" {
			continue
		}
		pub, err := rsaFromJWK(k)
		if err != nil {
			continue
		}
		parsed[k.Kid] = pub
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// No pisar un set aplicado por un fetch que arrancó después que este.
	if start.Before(c.fetchedAt) {
		return nil
	}
	c.keys = parsed
	c.fetchedAt = start
	return nil
}

func rsaFromJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nb)
	e := 0
	if len(eb) == 0 {
		e = 65537
	} else {
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}
