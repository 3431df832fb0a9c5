// Package session keeps one console (list state + bulk workflow) per browser
// session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tableadmin/internal/gateway"
	"tableadmin/internal/services"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/google/uuid"
)

// CookieName carries the session id.
const CookieName = "tableadmin_sid"

// DefaultTTL is how long an idle console is kept.
const DefaultTTL = 30 * time.Minute

// DefaultMaxSessions caps how many consoles are held at once.
const DefaultMaxSessions = 1000

// Session is one browser's console.
type Session struct {
	ID      string
	Store   *state.Store
	Bulk    *services.BulkService
	Records services.RecordService

	lastSeen time.Time
}

type Registry struct {
	Gateway  gateway.Gateway
	Tickets  *services.TicketSigner
	TTL      time.Duration
	PageSize int
	// MaxSessions bounds the registry; creating one more evicts the least
	// recently used idle console.
	MaxSessions int
	Now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(gw gateway.Gateway, tickets *services.TicketSigner, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		Gateway:     gw,
		Tickets:     tickets,
		TTL:         ttl,
		MaxSessions: DefaultMaxSessions,
		Now:         time.Now,
		sessions:    map[string]*Session{},
	}
}

// Lookup returns the live session for id without ever creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.Now()
	}
	return s, ok
}

// Resolve returns the session for id, creating a fresh one (with a new id)
// when id is unknown or expired.
func (r *Registry) Resolve(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	if s, ok := r.sessions[id]; ok && id != "" {
		s.lastSeen = now
		return s, false
	}
	if r.MaxSessions > 0 && len(r.sessions) >= r.MaxSessions {
		r.evictOldest()
	}
	s := r.newSession(now)
	r.sessions[s.ID] = s
	return s, true
}

// evictOldest drops the least recently seen console that is not applying a
// bulk action. Caller holds mu.
func (r *Registry) evictOldest() {
	var oldest *Session
	for _, s := range r.sessions {
		if s.Bulk.Phase() == services.PhaseApplying {
			continue
		}
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(r.sessions, oldest.ID)
	}
}

func (r *Registry) newSession(now time.Time) *Session {
	id := uuid.NewString()
	st := state.New(r.Gateway, r.PageSize)
	return &Session{
		ID:       id,
		Store:    st,
		Bulk:     services.NewBulkService(st, r.Tickets, id),
		Records:  services.RecordService{Store: st},
		lastSeen: now,
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than TTL. A session in the middle of
// a bulk action is kept until it finishes.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.Now().Add(-r.TTL)
	n := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && s.Bulk.Phase() != services.PhaseApplying {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				utils.LogEvent("", "session", "sweep", fmt.Sprintf("evicted=%d", n))
			}
		}
	}
}
