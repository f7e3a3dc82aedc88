package issuer

import (
	"sync"
	"time"
)

// sweepInterval bounds how often Validate walks the revoked set.
const sweepInterval = time.Minute

// RevokedTokenCache remembers the jti of access tokens ended by logout. An
// entry is only kept until its token would have expired anyway.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	// IsRevoked reports whether jti is revoked at now. Entries that expired
	// before now may be dropped as a side effect.
	IsRevoked(jti string, now time.Time) bool
	Len() int
}

type revokedCache struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	nextSweep time.Time
}

func NewRevokedTokenCache() RevokedTokenCache {
	return &revokedCache{revoked: make(map[string]time.Time)}
}

func (c *revokedCache) Add(jti string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

func (c *revokedCache) IsRevoked(jti string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !now.Before(c.nextSweep) {
		for id, exp := range c.revoked {
			if now.After(exp) {
				delete(c.revoked, id)
			}
		}
		c.nextSweep = now.Add(sweepInterval)
	}
	exp, ok := c.revoked[jti]
	return ok && !now.After(exp)
}

func (c *revokedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.revoked)
}
