package service

import (
	"context"
	"time"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/repository"
	"github.com/mtlprog/pludo/internal/vercel"
)

// AgentStore persists agent records.
type AgentStore interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, agentID string) (*domain.Agent, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Agent, error)
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Agent, error)
	UpdateConfig(ctx context.Context, agent *domain.Agent) error
	SetRepositoryURL(ctx context.Context, agentID, repositoryURL string) error
	SetLiveURL(ctx context.Context, agentID, liveURL string) error
	Delete(ctx context.Context, agentID string) error
}

// SourceHost is the source-control host generated sites are pushed to.
type SourceHost interface {
	EnsureRepository(ctx context.Context, name, description string) (*github.Repository, error)
	UploadFiles(ctx context.Context, fullName string, files []domain.GeneratedFile, message string) (string, error)
	DeleteRepository(ctx context.Context, fullName string) error
}

// BuildHost builds and serves repositories.
type BuildHost interface {
	GetProject(ctx context.Context, idOrName string) (*vercel.Project, error)
	CreateProject(ctx context.Context, name, gitRepo string) (*vercel.Project, error)
	AddDomain(ctx context.Context, projectID, domain string) error
	WaitForDeployment(ctx context.Context, project *vercel.Project, maxWait time.Duration) (*vercel.Deployment, error)
}

// Completer answers chat conversations.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

var (
	_ AgentStore = (*repository.AgentRepository)(nil)
	_ SourceHost = (*github.Client)(nil)
	_ BuildHost  = (*vercel.Client)(nil)
	_ Completer  = (*llm.Client)(nil)
)
