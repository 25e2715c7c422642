package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTTL is how long fetched keys are trusted before refetching
const DefaultJWKSTTL = time.Hour

// maxJWKSBytes bounds the key set response body
const maxJWKSBytes = 1 << 20

type jwksEntry struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches and caches provider signing keys per JWKS URL
type JWKSManager struct {
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]jwksEntry
}

// NewJWKSManager creates a JWKS manager. A nil client gets a 10s timeout client.
func NewJWKSManager(client *http.Client) *JWKSManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSManager{
		client: client,
		ttl:    DefaultJWKSTTL,
		now:    time.Now,
		cache:  make(map[string]jwksEntry),
	}
}

// GetJWKS returns the key set for jwksURL, fetching when the cached copy is missing or stale
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	entry, ok := m.cache[jwksURL]
	m.mu.RUnlock()
	if ok && m.now().Before(entry.expires) {
		return entry.keys, nil
	}

	keys, err := m.fetchJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = jwksEntry{keys: keys, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return keys, nil
}

// Invalidate drops the cached keys for jwksURL so the next lookup refetches.
// Used after a signature failure in case the provider rotated keys.
func (m *JWKSManager) Invalidate(jwksURL string) {
	m.mu.Lock()
	delete(m.cache, jwksURL)
	m.mu.Unlock()
}

func (m *JWKSManager) fetchJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}
