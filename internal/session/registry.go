// Package session keeps the in-memory stacks behind the HTTP API, one per
// client session. State is lost on process exit.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gridstack/internal/models"
	"gridstack/internal/stack"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	stack    *stack.Stack
	lastUsed time.Time
}

// Registry maps session ids to stacks. Access to one stack is serialized
// through With; different sessions proceed in parallel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry returns an empty registry. Sessions idle for longer than ttl
// are dropped by Sweep; a ttl of zero keeps them forever.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session with template installed and returns its id.
func (r *Registry) Create(template models.UseCaseTemplate) string {
	s := stack.New()
	s.SetUseCase(template)

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{stack: s, lastUsed: r.now()}
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{"session": id, "use_case": template.ID}).Info("stack session created")
	return id
}

// With runs fn with exclusive access to the session's stack.
func (r *Registry) With(id string, fn func(*stack.Stack) error) error {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return fn(e.stack)
}

// Delete resets and drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	e.stack.Reset()
	e.mu.Unlock()
	logrus.WithField("session", id).Info("stack session deleted")
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		logrus.WithField("dropped", dropped).Debug("expired stack sessions swept")
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
