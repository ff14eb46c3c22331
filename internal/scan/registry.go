package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Registry hands out sessions to terminals and expires idle ones.
type Registry struct {
	lender Lender
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a registry whose sessions expire after ttl without use.
// A ttl <= 0 disables expiry.
func NewRegistry(l Lender, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		lender:   l,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session and returns its handle.
func (r *Registry) Create() (string, *Session) {
	id := uuid.NewString()
	s := NewSession(r.lender, r.logger)

	r.mu.Lock()
	r.sessions[id] = &entry{session: s, lastUsed: r.now()}
	r.mu.Unlock()

	r.logger.Debug("scan session created", slog.String("session_id", id))
	return id, s
}

// Get returns the session for id and marks it used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.session, true
}

// Delete drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("scan sessions expired", slog.Int("count", n))
			}
		}
	}
}
