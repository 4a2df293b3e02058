package idp

import (
	"context"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mutableJWKS es un JWKS que puede rotar claves y cuenta los fetches.
type mutableJWKS struct {
	mu      sync.Mutex
	keys    map[string]*rsa.PrivateKey
	fetches atomic.Int64
}

func (m *mutableJWKS) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.fetches.Add(1)
		m.mu.Lock()
		body := jwksFor(m.keys)
		m.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func (m *mutableJWKS) publish(kid string, key *rsa.PrivateKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[kid] = key
}

func TestKeyCacheMissTriggersSingleRefetch(t *testing.T) {
	key := genKey(t)
	src := &mutableJWKS{keys: map[string]*rsa.PrivateKey{"kid-1": key}}
	srv := httptest.NewServer(src.handler())
	defer srv.Close()

	c := NewKeyCache(srv.URL)
	ctx := context.Background()

	got, err := c.VerificationKey(ctx, "kid-1")
	require.NoError(t, err)
	assert.True(t, got.Equal(&key.PublicKey))
	assert.EqualValues(t, 1, src.fetches.Load())

	// Hit: no vuelve a la red.
	_, err = c.VerificationKey(ctx, "kid-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.fetches.Load())
}

func TestKeyCacheUnknownKIDRefetchesOnceAndFails(t *testing.T) {
	src := &mutableJWKS{keys: map[string]*rsa.PrivateKey{"kid-1": genKey(t)}}
	srv := httptest.NewServer(src.handler())
	defer srv.Close()

	c := NewKeyCache(srv.URL)

	_, err := c.VerificationKey(context.Background(), "kid-fantasma")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	// Exactamente un refetch por el miss, no un loop.
	assert.EqualValues(t, 1, src.fetches.Load())
}

func TestKeyCachePicksUpRotatedKey(t *testing.T) {
	old := genKey(t)
	src := &mutableJWKS{keys: map[string]*rsa.PrivateKey{"kid-old": old}}
	srv := httptest.NewServer(src.handler())
	defer srv.Close()

	c := NewKeyCache(srv.URL)
	ctx := context.Background()

	_, err := c.VerificationKey(ctx, "kid-old")
	require.NoError(t, err)

	// El IdP rota: publica una clave nueva.
	fresh := genKey(t)
	src.publish("kid-new", fresh)

	got, err := c.VerificationKey(ctx, "kid-new")
	require.NoError(t, err)
	assert.True(t, got.Equal(&fresh.PublicKey))
}

func TestKeyCacheFetchErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewKeyCache(srv.URL)
	_, err := c.VerificationKey(context.Background(), "kid-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}
