package app

import (
	"sync"
	"time"

	"docchat/internal/logger"
)

// busyGuard serializes the pipeline's long-running phases: ingestion and
// querying are exclusive, sequential operations. As a fail-safe against a
// phase that never reports back, the busy state force-clears after a
// bounded timeout. That timeout is a liveness guarantee, not a
// cancellation: the underlying operation may still finish later, and
// release tells the caller whether its result is still current or must be
// discarded.
type busyGuard struct {
	mu      sync.Mutex
	busy    bool
	label   string
	epoch   uint64
	timeout time.Duration
	timer   *time.Timer
}

func newBusyGuard(timeout time.Duration) *busyGuard {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &busyGuard{timeout: timeout}
}

// acquire marks the guard busy and returns the epoch token for release.
// Returns ErrBusy while another operation holds the guard.
func (g *busyGuard) acquire(label string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return 0, ErrBusy
	}
	g.busy = true
	g.label = label
	g.epoch++
	epoch := g.epoch
	g.timer = time.AfterFunc(g.timeout, func() {
		g.forceClear(epoch)
	})
	return epoch, nil
}

// release clears the busy state if epoch is still the active one. A false
// return means the guard was force-cleared (or re-acquired) in the
// meantime and the operation's result is stale.
func (g *busyGuard) release(epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.busy || g.epoch != epoch {
		return false
	}
	g.busy = false
	g.label = ""
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	return true
}

func (g *busyGuard) forceClear(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.busy || g.epoch != epoch {
		return
	}
	logger.Warn("busy state force-cleared after timeout", "label", g.label, "timeout", g.timeout.String())
	g.busy = false
	g.label = ""
	g.timer = nil
}

// state reports whether the guard is held and by which operation.
func (g *busyGuard) state() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy, g.label
}
