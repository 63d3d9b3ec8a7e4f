package services

import (
	"context"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/ports"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is an edit session plus the route currently being navigated, if any.
type Session struct {
	ID   string
	Edit *EditSession

	mu      sync.Mutex
	tracker *ProgressTracker

	// lastUsed is unix nanoseconds of the last registry lookup.
	lastUsed atomic.Int64
}

// StartNavigation makes src the active route and returns its fresh tracker.
func (s *Session) StartNavigation(src RouteSource) *ProgressTracker {
	t := NewProgressTracker(src, s.Edit.Settings().OffRouteThresholdM)

	s.mu.Lock()
	s.tracker = t
	s.mu.Unlock()
	return t
}

func (s *Session) StopNavigation() {
	s.mu.Lock()
	s.tracker = nil
	s.mu.Unlock()
}

// Tracker returns the active navigation or domain.ErrNoActiveRoute.
func (s *Session) Tracker() (*ProgressTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, domain.ErrNoActiveRoute)
	}
	return s.tracker, nil
}

// Registry owns the live sessions of the service, keyed by uuid.
type Registry struct {
	router   ports.Router
	settings Settings
	log      *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(router ports.Router, settings Settings, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		router:   router,
		settings: settings.withDefaults(),
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Router() ports.Router { return r.router }

func (r *Registry) Settings() Settings { return r.settings }

// Create registers an empty edit session.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	return r.add(id, NewEditSession(r.router, r.settings, r.log.With(zap.String("session_id", id))))
}

// CreateFromRoute registers a session seeded from an existing routed result.
func (r *Registry) CreateFromRoute(d domain.Directions, live *domain.Coordinate) (*Session, error) {
	id := uuid.NewString()
	edit, err := NewSessionFromRoute(d, live, r.router, r.settings, r.log.With(zap.String("session_id", id)))
	if err != nil {
		return nil, err
	}
	return r.add(id, edit), nil
}

func (r *Registry) add(id string, edit *EditSession) *Session {
	s := &Session{ID: id, Edit: edit}
	s.lastUsed.Store(r.now().UnixNano())

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.lastUsed.Store(r.now().UnixNano())
	return s, nil
}

// Delete closes the session and discards its in-flight results.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.Edit.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session, as on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Edit.Close()
	}
}

// Sweep closes every session not looked up for longer than idle and returns
// how many were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.lastUsed.Load() < cutoff {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Edit.Close()
		r.log.Info("session.expired", zap.String("session_id", s.ID))
	}
	return len(expired)
}

// SweepIdle runs Sweep until ctx ends, checking a few times per idle period.
func (r *Registry) SweepIdle(ctx context.Context, idle time.Duration) {
	interval := max(idle/4, time.Second)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("session.sweep", zap.Int("removed", n), zap.Int("live", r.Len()))
			}
		}
	}
}
