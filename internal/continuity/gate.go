package continuity

import "sync"

// Gate remembers which projects have already surfaced their catch-up
// snapshot this run. It is process-local by design: restarting the server
// resets it, which is what makes the next first touch surface a snapshot
// again.
//
// Check-and-set is atomic under one mutex so two near-simultaneous first
// calls cannot both believe they were first.
type Gate struct {
	mu      sync.Mutex
	started map[string]struct{}
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{started: make(map[string]struct{})}
}

// TryAcquire marks projectID as started and reports whether this call
// was the first for it.
func (g *Gate) TryAcquire(projectID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.started[projectID]; ok {
		return false
	}
	g.started[projectID] = struct{}{}
	return true
}

// Mark marks projectID as started regardless of prior state.
func (g *Gate) Mark(projectID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started[projectID] = struct{}{}
}

// Release forgets projectID so a later call can acquire it again. Used
// when reconciliation fails after acquiring, so a retry isn't silenced.
func (g *Gate) Release(projectID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.started, projectID)
}

// Reset clears all state. Tests use this to simulate a process restart.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started = make(map[string]struct{})
}
