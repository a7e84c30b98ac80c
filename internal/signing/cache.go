package signing

import (
	"context"
	"sync"
	"time"

	"github.com/anggasct/fluo"
	"go.uber.org/zap"
)

// Session is one manager's in-flight NDA signing attempt. At most one
// session exists per pin; regenerating a preview replaces it.
type Session struct {
	Pin          string
	ManagerName  string
	Machine      fluo.Machine
	Payload      SignaturePayload
	ArtifactPath string
	ContentHash  string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// SessionCache holds signing sessions keyed by manager pin. Expiry is lazy
// on Get plus a periodic sweep; both use the injected clock.
type SessionCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewSessionCache(ttl time.Duration, now func() time.Time) *SessionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &SessionCache{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Put stores a session, replacing any existing one for the same pin.
func (c *SessionCache) Put(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.CreatedAt = c.now()
	s.ExpiresAt = s.CreatedAt.Add(c.ttl)
	c.sessions[s.Pin] = s
}

// Get returns the live session for a pin. Expired sessions are dropped on
// the spot.
func (c *SessionCache) Get(pin string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[pin]
	if !ok {
		return nil, false
	}
	if !c.now().Before(s.ExpiresAt) {
		delete(c.sessions, pin)
		return nil, false
	}
	return s, true
}

func (c *SessionCache) Delete(pin string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, pin)
}

// Sweep removes expired sessions and returns how many were dropped.
func (c *SessionCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	dropped := 0
	for pin, s := range c.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(c.sessions, pin)
			dropped++
		}
	}
	return dropped
}

func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Run sweeps on an interval until ctx is cancelled.
func (c *SessionCache) Run(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				log.Debug("signing sessions expired", zap.Int("count", n))
			}
		}
	}
}
