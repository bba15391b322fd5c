package submissionpipeline

import (
	"context"
	"sync"
	"time"

	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

// Guard enforces single-flight per form instance: at most one attempt
// dispatching at a time, and none after a success.
type Guard interface {
	// Begin atomically moves an idle form instance to dispatching. When the
	// instance is locked it returns false and the current state.
	Begin(ctx context.Context, formID string) (bool, models.SubmissionState, error)
	// Finish seals the instance on success and releases it on failure.
	Finish(ctx context.Context, formID string, outcome models.Outcome) error
	State(ctx context.Context, formID string) (models.SubmissionState, error)
	Ping(ctx context.Context) error
}

const sweepInterval = time.Minute

type guardEntry struct {
	state     models.SubmissionState
	expiresAt time.Time
}

// MemoryGuard keeps form instance states in process memory. Entries expire
// after ttl so sealed instances do not accumulate forever.
type MemoryGuard struct {
	mu        sync.Mutex
	entries   map[string]guardEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryGuard{
		entries: make(map[string]guardEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (g *MemoryGuard) Begin(ctx context.Context, formID string) (bool, models.SubmissionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	if entry, ok := g.lookup(formID, now); ok {
		return false, entry.state, nil
	}
	g.entries[formID] = guardEntry{state: models.StateDispatching, expiresAt: now.Add(g.ttl)}
	return true, models.StateDispatching, nil
}

func (g *MemoryGuard) Finish(ctx context.Context, formID string, outcome models.Outcome) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if outcome == models.OutcomeSucceeded {
		g.entries[formID] = guardEntry{state: models.StateSucceeded, expiresAt: g.now().Add(g.ttl)}
		return nil
	}
	delete(g.entries, formID)
	return nil
}

func (g *MemoryGuard) State(ctx context.Context, formID string) (models.SubmissionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.lookup(formID, g.now()); ok {
		return entry.state, nil
	}
	return models.StateIdle, nil
}

func (g *MemoryGuard) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of tracked form instances.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// lookup must be called with mu held.
func (g *MemoryGuard) lookup(formID string, now time.Time) (guardEntry, bool) {
	entry, ok := g.entries[formID]
	if !ok {
		return guardEntry{}, false
	}
	if !now.Before(entry.expiresAt) {
		delete(g.entries, formID)
		return guardEntry{}, false
	}
	return entry, true
}

// sweep must be called with mu held.
func (g *MemoryGuard) sweep(now time.Time) {
	if now.Sub(g.lastSweep) < sweepInterval {
		return
	}
	g.lastSweep = now
	for id, entry := range g.entries {
		if !now.Before(entry.expiresAt) {
			delete(g.entries, id)
		}
	}
}
