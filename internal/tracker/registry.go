package tracker

import (
	"context"
	"sync"
	"time"
)

// RegistryConfig bounds how many client sessions a Registry keeps and for how long.
type RegistryConfig struct {
	IdleTTL     time.Duration
	MaxSessions int
	// Now drives session expiry. Defaults to time.Now.
	Now func() time.Time
}

// Registry holds one Tracker per client session so that the current user of
// one client never attributes another client's actions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	opts     []Option
	idleTTL  time.Duration
	max      int
	now      func() time.Time
}

type registryEntry struct {
	tracker  *Tracker
	lastSeen time.Time
}

// NewRegistry builds a registry whose trackers are created with opts.
// Trackers that share the configured store keep their streams under their own session id.
func NewRegistry(cfg RegistryConfig, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*registryEntry),
		opts:     append(append([]Option{}, opts...), func(t *Tracker) { t.scoped = true }),
		idleTTL:  cfg.IdleTTL,
		max:      cfg.MaxSessions,
		now:      cfg.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Open starts a new session for a client and returns its tracker.
func (r *Registry) Open(ctx context.Context, client ClientInfo) *Tracker {
	tr := New(ctx, append(append([]Option{}, r.opts...), WithClient(client))...)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	if r.max > 0 {
		for len(r.sessions) >= r.max {
			r.evictOldestLocked()
		}
	}
	r.sessions[tr.SessionID()] = &registryEntry{tracker: tr, lastSeen: now}
	return tr
}

// Get returns the tracker of a live session and marks it as used.
func (r *Registry) Get(sessionID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expired(entry, now) {
		delete(r.sessions, sessionID)
		return nil, false
	}
	entry.lastSeen = now
	return entry.tracker, true
}

// Close ends a session. It reports whether the session was live.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// Len returns the number of sessions held, including idle ones not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func (r *Registry) expired(entry *registryEntry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(entry.lastSeen) > r.idleTTL
}

func (r *Registry) sweepLocked(now time.Time) {
	for id, entry := range r.sessions {
		if r.expired(entry, now) {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range r.sessions {
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID, oldest = id, entry.lastSeen
		}
	}
	delete(r.sessions, oldestID)
}
