package bazik

import (
	"sync"
	"time"
)

// DefaultExpiryBuffer is subtracted from a token's lifetime before reuse so a
// request never leaves the process with a token about to lapse in flight.
const DefaultExpiryBuffer = 5 * time.Minute

// TokenCache holds a bearer token and its absolute expiry for a single
// process. Nothing is shared across instances; every cold start exchanges
// credentials again.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	buffer time.Duration
	now    func() time.Time
}

// NewTokenCache constructs a cache with the given reuse buffer. A zero or
// negative buffer falls back to DefaultExpiryBuffer.
func NewTokenCache(buffer time.Duration) *TokenCache {
	if buffer <= 0 {
		buffer = DefaultExpiryBuffer
	}
	return &TokenCache{buffer: buffer, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (c *TokenCache) WithClock(now func() time.Time) *TokenCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now != nil {
		c.now = now
	}
	return c
}

// Get returns the cached token when its expiry is further than the buffer
// away from now.
func (c *TokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", false
	}
	if !c.expiresAt.Add(-c.buffer).After(c.now()) {
		return "", false
	}
	return c.token, true
}

// Set stores a freshly issued token with its lifetime.
func (c *TokenCache) Set(token string, expiresIn time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = c.now().Add(expiresIn)
}
