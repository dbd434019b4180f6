// Package progress tracks per-attempt deployment steps so the dashboard can
// show which phase a pipeline run is in. Progress is not part of the agent
// record and expires after TTL.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/mtlprog/pludo/internal/domain"
)

// TTL is how long a run's steps are kept after the last update.
const TTL = time.Hour

// Tracker records step transitions for agents.
type Tracker interface {
	// Start resets the agent's steps to all pending.
	Start(ctx context.Context, agentID string) error
	// Update sets the status and message of one step.
	Update(ctx context.Context, agentID, stepID string, status domain.StepStatus, message string) error
	// Get returns the agent's steps, or nil if no run is known.
	Get(ctx context.Context, agentID string) ([]domain.DeploymentStep, error)
}

// apply sets a step's status in place; unknown step ids are ignored.
func apply(steps []domain.DeploymentStep, stepID string, status domain.StepStatus, message string) {
	for i := range steps {
		if steps[i].ID == stepID {
			steps[i].Status = status
			steps[i].Message = message
			return
		}
	}
}

type memoryEntry struct {
	steps     []domain.DeploymentStep
	expiresAt time.Time
}

// MemoryTracker keeps progress in process memory.
type MemoryTracker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryTracker creates an empty MemoryTracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Start implements Tracker.
func (t *MemoryTracker) Start(_ context.Context, agentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[agentID] = memoryEntry{
		steps:     domain.NewDeploymentSteps(),
		expiresAt: t.now().Add(TTL),
	}
	return nil
}

// Update implements Tracker. Updating an unknown run starts it first.
func (t *MemoryTracker) Update(_ context.Context, agentID, stepID string, status domain.StepStatus, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.live(agentID)
	if !ok {
		entry.steps = domain.NewDeploymentSteps()
	}
	apply(entry.steps, stepID, status, message)
	entry.expiresAt = t.now().Add(TTL)
	t.entries[agentID] = entry
	return nil
}

// Get implements Tracker.
func (t *MemoryTracker) Get(_ context.Context, agentID string) ([]domain.DeploymentStep, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.live(agentID)
	if !ok {
		return nil, nil
	}
	out := make([]domain.DeploymentStep, len(entry.steps))
	copy(out, entry.steps)
	return out, nil
}

// live returns the unexpired entry, dropping it if it has expired.
// Callers hold t.mu.
func (t *MemoryTracker) live(agentID string) (memoryEntry, bool) {
	entry, ok := t.entries[agentID]
	if !ok {
		return memoryEntry{}, false
	}
	if !t.now().Before(entry.expiresAt) {
		delete(t.entries, agentID)
		return memoryEntry{}, false
	}
	return entry, true
}
