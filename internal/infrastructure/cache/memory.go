package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an InFlightGuard for a single process
type MemoryGuard struct {
	mu        sync.Mutex
	held      map[string]hold
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryGuard creates a guard that sweeps expired keys every interval
func NewMemoryGuard(interval time.Duration) *MemoryGuard {
	if interval <= 0 {
		interval = time.Minute
	}
	g := &MemoryGuard{
		held:     make(map[string]hold),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	g.wg.Add(1)
	go g.cleanupLoop(interval)
	return g
}

type hold struct {
	token     string
	expiresAt time.Time
}

// Acquire takes key unless an unexpired holder exists
func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if h, ok := g.held[key]; ok && now.Before(h.expiresAt) {
		return "", false, nil
	}
	token := newToken()
	g.held[key] = hold{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release frees key if token is still its holder
func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.held[key]; ok && h.token == token {
		delete(g.held, key)
	}
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (g *MemoryGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// Size returns the number of tracked keys, expired or not
func (g *MemoryGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

func (g *MemoryGuard) cleanupLoop(interval time.Duration) {
	defer g.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *MemoryGuard) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, h := range g.held {
		if !now.Before(h.expiresAt) {
			delete(g.held, key)
		}
	}
}

var _ InFlightGuard = (*MemoryGuard)(nil)
