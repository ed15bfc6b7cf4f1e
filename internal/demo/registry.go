package demo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inksynth/internal/catalog"
	"inksynth/internal/domain"
)

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 30 * time.Minute

// ErrClosed is returned when creating a session on a closed registry.
var ErrClosed = errors.New("demo: registry closed")

// Registry keeps one Session per client and evicts idle ones.
type Registry struct {
	catalog *catalog.Catalog
	opts    Options
	ttl     time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRegistry starts a registry whose janitor sweeps every ttl/2.
// A non-positive ttl uses DefaultSessionTTL.
func NewRegistry(cat *catalog.Catalog, opts Options, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	r := &Registry{
		catalog:  cat,
		opts:     opts,
		ttl:      ttl,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	r.wg.Add(1)
	go r.janitor(ttl / 2)
	return r
}

// Create opens a new session.
func (r *Registry) Create() (*Session, error) {
	s := NewSession(r.catalog, r.opts)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return nil, ErrClosed
	}
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info().Str("session_id", s.ID()).Int("sessions", n).Msg("demo session created")
	return s, nil
}

// Get returns a live session and records the access.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("demo session %q: %w", id, domain.ErrNotFound)
	}
	s.Touch()
	return s, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("demo session %q: %w", id, domain.ErrNotFound)
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) janitor(every time.Duration) {
	defer r.wg.Done()
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			if n := r.sweep(now); n > 0 {
				r.logger.Info().Int("evicted", n).Msg("demo sessions expired")
			}
		}
	}
}

// sweep closes sessions idle for longer than the ttl at now.
func (r *Registry) sweep(now time.Time) int {
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Close stops the janitor and closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()
	for _, s := range sessions {
		s.Close()
	}
}
