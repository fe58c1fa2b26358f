package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/Definkle/skinet-cart/internal/cart"
)

// EngineFactory builds a cart engine bound to one session's id store.
type EngineFactory func(sessionID string) *cart.Engine

type session struct {
	eng      *cart.Engine
	init     sync.Once
	lastUsed time.Time
}

// Sessions hands out one cart engine per storefront session, creating
// and initializing them lazily on first use. Concurrent first-touch
// callers all wait for the same initialization before getting the
// engine.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  EngineFactory
}

func NewSessions(factory EngineFactory) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		factory:  factory,
	}
}

func (s *Sessions) Get(ctx context.Context, sessionID string) *cart.Engine {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &session{eng: s.factory(sessionID)}
		s.sessions[sessionID] = entry
	}
	entry.lastUsed = time.Now()
	s.mu.Unlock()

	entry.init.Do(func() {
		// Failures are already surfaced through the engine's error
		// reporter; a fresh session simply starts with an empty cart.
		_ = entry.eng.Initialize(ctx)
	})
	return entry.eng
}

// ClearCart drops the session's cart locally and remotely. Used by the
// checkout-completed consumer.
func (s *Sessions) ClearCart(ctx context.Context, sessionID string) error {
	s.Get(ctx, sessionID).Clear(ctx)
	return nil
}

// EvictIdle closes and removes engines that have not been touched for
// at least ttl. Pending syncs are flushed on close; the session is
// rebuilt from its stored cart id on the next request.
func (s *Sessions) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var idle []*session
	for id, entry := range s.sessions {
		if !entry.lastUsed.After(cutoff) {
			idle = append(idle, entry)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range idle {
		entry.eng.Close()
	}
	return len(idle)
}

// RunEviction sweeps idle sessions every interval until ctx is done.
func (s *Sessions) RunEviction(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ttl)
		}
	}
}

// CloseAll flushes pending syncs and waits for in-flight ones.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	engines := make([]*cart.Engine, 0, len(s.sessions))
	for _, entry := range s.sessions {
		engines = append(engines, entry.eng)
	}
	s.mu.Unlock()

	for _, eng := range engines {
		eng.Close()
	}
}
