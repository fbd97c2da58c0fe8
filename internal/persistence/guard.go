package persistence

import (
	"context"
	"sync"
)

// saveGuard allows one running save per deck id.
type saveGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	idle    chan struct{} // closed when running drains; nil while nothing runs
}

// TryLock marks deckID as saving. It returns false if a save is already running.
func (g *saveGuard) TryLock(deckID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[deckID]; ok {
		return false
	}
	if len(g.running) == 0 {
		g.idle = make(chan struct{})
	}
	g.running[deckID] = struct{}{}
	return true
}

// Unlock releases deckID. Must follow a successful TryLock.
func (g *saveGuard) Unlock(deckID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[deckID]; !ok {
		return
	}
	delete(g.running, deckID)
	if len(g.running) == 0 {
		close(g.idle)
		g.idle = nil
	}
}

// WaitAll blocks until no save is running or ctx is done. It may be called
// while saves keep starting and finishing.
func (g *saveGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()
	if idle == nil {
		return
	}
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
