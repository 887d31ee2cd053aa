package tuya

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenSafetyMargin is subtracted from the cloud-reported lifetime so a token
// is treated as expired slightly before the server would reject it.
const tokenSafetyMargin = 60 * time.Second

type token struct {
	value     string
	expiresAt time.Time
}

// tokenFetcher performs one token-acquisition call and returns the access
// token together with its cloud-reported lifetime.
type tokenFetcher func(ctx context.Context) (string, time.Duration, error)

// TokenManager owns the access-token lifecycle for a single credential.
// Concurrent callers needing a refresh share one in-flight acquisition, so the
// cloud sees at most one token call per credential at a time.
type TokenManager struct {
	fetch tokenFetcher
	now   func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	current *token
}

func newTokenManager(fetch tokenFetcher) *TokenManager {
	return &TokenManager{fetch: fetch, now: time.Now}
}

// EnsureToken returns a valid access token, acquiring one if the cached token
// is absent or past its safety-margin expiry. A failed acquisition leaves any
// previously cached token untouched so the caller can retry later.
func (m *TokenManager) EnsureToken(ctx context.Context) (string, error) {
	if v, ok := m.cached(); ok {
		return v, nil
	}

	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		// A concurrent caller may have finished the refresh already.
		if v, ok := m.cached(); ok {
			return v, nil
		}

		value, lifetime, err := m.fetch(ctx)
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		m.current = &token{value: value, expiresAt: m.now().Add(lifetime - tokenSafetyMargin)}
		m.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call acquires a fresh one.
// Used when the cloud rejects a token the manager still considered valid.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.now().Before(m.current.expiresAt) {
		return m.current.value, true
	}
	return "", false
}
