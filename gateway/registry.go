package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"smarthome-go-api/tuya"
)

// Registry pools one cloud client per credential so the cached token and its
// refresh lock survive across requests and aggregator cycles, instead of
// rebuilding the client (and re-fetching tokens) on every HTTP request.
// Entries unused for longer than the TTL are evicted, which also ages out
// clients whose credentials were rotated.
type Registry struct {
	baseURL string
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*registryEntry
}

type registryEntry struct {
	client   *tuya.Client
	lastUsed time.Time
}

func NewRegistry(baseURL string, timeout, ttl time.Duration) *Registry {
	return &Registry{
		baseURL: baseURL,
		timeout: timeout,
		ttl:     ttl,
		now:     time.Now,
		clients: make(map[string]*registryEntry),
	}
}

// ClientFor returns the pooled client for a credential, creating it lazily.
func (r *Registry) ClientFor(cred tuya.Credential) *tuya.Client {
	key := credentialKey(cred)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.clients[key]; ok {
		e.lastUsed = r.now()
		return e.client
	}

	c := tuya.NewClient(r.baseURL, cred, r.timeout)
	r.clients[key] = &registryEntry{client: c, lastUsed: r.now()}
	return c
}

// EvictStale drops clients unused for longer than the TTL and reports how
// many were removed.
func (r *Registry) EvictStale() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, e := range r.clients {
		if e.lastUsed.Before(cutoff) {
			delete(r.clients, key)
			evicted++
		}
	}
	return evicted
}

// Start runs the eviction janitor until the context is cancelled.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.EvictStale(); n > 0 {
					slog.Debug("cloud_clients_evicted", slog.Int("count", n))
				}
			}
		}
	}()
}

func (r *Registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// credentialKey hashes the pair so raw secrets never sit in map keys.
func credentialKey(cred tuya.Credential) string {
	sum := sha256.Sum256([]byte(cred.ClientID + ":" + cred.ClientSecret))
	return hex.EncodeToString(sum[:])
}
