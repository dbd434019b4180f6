// Package testutil provides in-memory fakes of the stores and hosts the
// deployment pipeline talks to.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/pludo/internal/domain"
)

// MemoryStore is an in-memory agent store. Agents are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent
	now    time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents: map[string]*domain.Agent{},
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func cloneAgent(a *domain.Agent) *domain.Agent {
	c := *a
	c.Services = append([]string(nil), a.Services...)
	c.FAQs = append([]domain.FAQ(nil), a.FAQs...)
	if a.RepositoryURL != nil {
		v := *a.RepositoryURL
		c.RepositoryURL = &v
	}
	if a.LiveURL != nil {
		v := *a.LiveURL
		c.LiveURL = &v
	}
	return &c
}

// tick advances the store clock so timestamps are strictly increasing.
func (s *MemoryStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

// Create implements service.AgentStore.
func (s *MemoryStore) Create(_ context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.agents {
		if a.Subdomain == agent.Subdomain {
			return domain.ErrSubdomainTaken
		}
	}

	agent.ID = uuid.NewString()
	agent.CreatedAt = s.tick()
	agent.UpdatedAt = agent.CreatedAt
	s.agents[agent.ID] = cloneAgent(agent)
	return nil
}

// GetByID implements service.AgentStore.
func (s *MemoryStore) GetByID(_ context.Context, agentID string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[agentID]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return cloneAgent(a), nil
}

// GetBySubdomain implements service.AgentStore.
func (s *MemoryStore) GetBySubdomain(_ context.Context, subdomain string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.agents {
		if a.Subdomain == subdomain {
			return cloneAgent(a), nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

// SubdomainExists implements service.AgentStore.
func (s *MemoryStore) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	_, err := s.GetBySubdomain(ctx, subdomain)
	if err == domain.ErrAgentNotFound {
		return false, nil
	}
	return err == nil, err
}

// ListByUser implements service.AgentStore.
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.Agent{}
	for _, a := range s.agents {
		if a.UserID == userID {
			out = append(out, cloneAgent(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateConfig implements service.AgentStore.
func (s *MemoryStore) UpdateConfig(_ context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.agents[agent.ID]
	if !ok {
		return domain.ErrAgentNotFound
	}
	subdomain := stored.Subdomain
	stored.AgentConfig = cloneAgent(agent).AgentConfig
	stored.Subdomain = subdomain
	stored.UpdatedAt = s.tick()
	agent.UpdatedAt = stored.UpdatedAt
	return nil
}

// SetRepositoryURL implements service.AgentStore.
func (s *MemoryStore) SetRepositoryURL(_ context.Context, agentID, repositoryURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[agentID]
	if !ok {
		return domain.ErrAgentNotFound
	}
	a.RepositoryURL = &repositoryURL
	a.UpdatedAt = s.tick()
	return nil
}

// SetLiveURL implements service.AgentStore.
func (s *MemoryStore) SetLiveURL(_ context.Context, agentID, liveURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[agentID]
	if !ok {
		return domain.ErrAgentNotFound
	}
	a.LiveURL = &liveURL
	a.UpdatedAt = s.tick()
	return nil
}

// Delete implements service.AgentStore.
func (s *MemoryStore) Delete(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agentID]; !ok {
		return domain.ErrAgentNotFound
	}
	delete(s.agents, agentID)
	return nil
}

// Len returns the number of stored agents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}
