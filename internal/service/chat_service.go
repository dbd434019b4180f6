package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/metrics"
	"github.com/mtlprog/pludo/internal/poll"
	"github.com/mtlprog/pludo/internal/sitegen"
)

const (
	// maxChatHistory is how many trailing messages are forwarded.
	maxChatHistory = 20
	// maxChatMessageLength bounds a single message in characters.
	maxChatMessageLength = 4000
)

// ChatConfig configures the per-agent rate limit of the chat proxy.
type ChatConfig struct {
	// RequestsPerMinute is the sustained rate per agent.
	RequestsPerMinute int
	// Burst is the number of requests allowed at once.
	Burst int
	// IdleTTL is how long an unused limiter is kept. Defaults to 10 minutes.
	IdleTTL time.Duration
	// Clock defaults to poll.Real().
	Clock poll.Clock
}

type agentLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ChatService answers widget conversations on behalf of deployed agents.
// The provider key stays on the server: the widget only sends messages.
type ChatService struct {
	store     AgentStore
	completer Completer
	metrics   *metrics.Metrics
	clock     poll.Clock

	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	limiters  map[string]*agentLimiter
	lastSweep time.Time
}

// NewChatService creates a new ChatService.
func NewChatService(store AgentStore, completer Completer, m *metrics.Metrics, cfg ChatConfig) *ChatService {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = poll.Real()
	}
	return &ChatService{
		store:     store,
		completer: completer,
		metrics:   m,
		clock:     cfg.Clock,
		limit:     rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:     cfg.Burst,
		idleTTL:   cfg.IdleTTL,
		limiters:  make(map[string]*agentLimiter),
		lastSweep: cfg.Clock.Now(),
	}
}

// allow takes a token from the agent's limiter. Limiters exist only for
// stored agents and are dropped after idleTTL without traffic.
func (s *ChatService) allow(agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		for id, l := range s.limiters {
			if now.Sub(l.lastSeen) >= s.idleTTL {
				delete(s.limiters, id)
			}
		}
		s.lastSweep = now
	}

	l, ok := s.limiters[agentID]
	if !ok {
		l = &agentLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[agentID] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// Reply forwards a conversation to the agent's provider with the agent's
// system prompt prepended. model, when set, must match the agent's model.
func (s *ChatService) Reply(ctx context.Context, subdomain, model string, messages []llm.Message) (reply string, err error) {
	defer func() { s.metrics.ObserveChat(err) }()

	if !subdomainPattern.MatchString(subdomain) {
		return "", fmt.Errorf("%w: subdomain %q", domain.ErrAgentNotFound, subdomain)
	}

	if err := validateConversation(messages); err != nil {
		return "", err
	}

	agent, err := s.store.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return "", err
	}

	if !s.allow(agent.ID) {
		return "", fmt.Errorf("%w: chat for %s", domain.ErrRateLimited, subdomain)
	}

	if model != "" && model != agent.Model {
		return "", fmt.Errorf("%w: model %q is not configured for this agent", domain.ErrValidation, model)
	}

	if len(messages) > maxChatHistory {
		messages = messages[len(messages)-maxChatHistory:]
	}

	conversation := make([]llm.Message, 0, len(messages)+1)
	conversation = append(conversation, llm.Message{Role: llm.RoleSystem, Content: sitegen.SystemPrompt(agent.AgentConfig)})
	conversation = append(conversation, messages...)

	reply, err = s.completer.Complete(ctx, llm.Request{
		Provider: agent.APIProvider,
		APIKey:   agent.APIKey,
		Model:    agent.Model,
		Messages: conversation,
	})
	if err != nil {
		slog.Warn("chat completion failed",
			"agent_id", agent.ID,
			"subdomain", subdomain,
			"provider", agent.APIProvider,
			"error", err,
		)
		return "", fmt.Errorf("chat completion: %w", err)
	}

	return reply, nil
}

func validateConversation(messages []llm.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: messages are required", domain.ErrValidation)
	}
	for i, m := range messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q, expected user or assistant", domain.ErrValidation, i+1, m.Role)
		}
		if m.Content == "" {
			return fmt.Errorf("%w: message %d is empty", domain.ErrValidation, i+1)
		}
		if utf8.RuneCountInString(m.Content) > maxChatMessageLength {
			return fmt.Errorf("%w: message %d exceeds %d characters", domain.ErrValidation, i+1, maxChatMessageLength)
		}
	}
	if messages[len(messages)-1].Role != llm.RoleUser {
		return fmt.Errorf("%w: the last message must come from the user", domain.ErrValidation)
	}
	return nil
}
