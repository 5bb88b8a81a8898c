package auth

import (
	"strings"
	"sync"
	"time"
)

// ThrottleConfig bounds sign-in attempts per client address and username.
type ThrottleConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

func (c ThrottleConfig) withDefaults() ThrottleConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Lockout <= 0 {
		c.Lockout = 30 * time.Minute
	}
	return c
}

type failures struct {
	count   int
	since   time.Time
	blocked time.Time
}

// Throttle counts failed sign-ins in memory. It complements the account
// lockout stored on the user row: the throttle also slows down guessing of
// usernames that do not exist. Stale entries are pruned as failures arrive.
type Throttle struct {
	cfg ThrottleConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*failures
}

func NewThrottle(cfg ThrottleConfig) *Throttle {
	return &Throttle{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*failures),
	}
}

func throttleKey(clientIP, username string) string {
	return clientIP + "|" + strings.ToLower(strings.TrimSpace(username))
}

// Wait returns how long the caller must wait before trying again; zero
// means the attempt may go ahead.
func (t *Throttle) Wait(clientIP, username string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.entries[throttleKey(clientIP, username)]
	if !ok {
		return 0
	}
	now := t.now()
	if now.Before(f.blocked) {
		return f.blocked.Sub(now)
	}
	return 0
}

// Fail records a failed attempt and reports whether it started a lockout.
func (t *Throttle) Fail(clientIP, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)

	key := throttleKey(clientIP, username)
	f, ok := t.entries[key]
	if !ok || now.Sub(f.since) > t.cfg.Window {
		f = &failures{since: now}
		t.entries[key] = f
	}
	f.count++
	if f.count >= t.cfg.MaxAttempts {
		f.blocked = now.Add(t.cfg.Lockout)
		return true
	}
	return false
}

// Succeed forgets earlier failures for the pair.
func (t *Throttle) Succeed(clientIP, username string) {
	t.mu.Lock()
	delete(t.entries, throttleKey(clientIP, username))
	t.mu.Unlock()
}

// prune drops entries whose window and lockout have both passed.
// Callers hold t.mu.
func (t *Throttle) prune(now time.Time) {
	for key, f := range t.entries {
		if now.Sub(f.since) > t.cfg.Window && !now.Before(f.blocked) {
			delete(t.entries, key)
		}
	}
}
