package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/metrics"
	"github.com/mtlprog/pludo/internal/progress"
	"github.com/mtlprog/pludo/internal/sitegen"
)

// DefaultDeploymentTimeout bounds the wait for a build to become ready.
const DefaultDeploymentTimeout = 5 * time.Minute

// repoPrefix is prepended to the subdomain to name the source repository.
const repoPrefix = "pludo-"

// DeploymentConfig holds platform settings for the pipeline.
type DeploymentConfig struct {
	PlatformDomain    string
	DeploymentTimeout time.Duration
}

// GenerateResult is the outcome of the generate phase.
type GenerateResult struct {
	Agent *domain.Agent
	Files []domain.GeneratedFile
}

// UploadResult is the outcome of the upload phase.
type UploadResult struct {
	RepositoryURL string
	CommitSHA     string
}

// DeployResult is the outcome of the deploy phase.
type DeployResult struct {
	LiveURL       string
	EmbedSnippet  string
	DeploymentURL string
	ProjectID     string
}

// PipelineResult collects the phases a DeployAll run completed.
type PipelineResult struct {
	AgentID  string
	Generate *GenerateResult
	Upload   *UploadResult
	Deploy   *DeployResult
}

// PhaseError reports which pipeline phase failed.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// DeploymentService runs the generate, upload and deploy phases for agents.
// Each phase reads the persisted record and writes its result back, so a
// failed phase can be re-run without repeating earlier ones.
type DeploymentService struct {
	store     AgentStore
	source    SourceHost
	build     BuildHost
	generator *sitegen.Generator
	tracker   progress.Tracker
	metrics   *metrics.Metrics
	validator *Validator

	platformDomain    string
	deploymentTimeout time.Duration
}

// NewDeploymentService creates a new DeploymentService.
func NewDeploymentService(
	store AgentStore,
	source SourceHost,
	build BuildHost,
	generator *sitegen.Generator,
	tracker progress.Tracker,
	m *metrics.Metrics,
	cfg DeploymentConfig,
) *DeploymentService {
	if cfg.DeploymentTimeout <= 0 {
		cfg.DeploymentTimeout = DefaultDeploymentTimeout
	}
	return &DeploymentService{
		store:             store,
		source:            source,
		build:             build,
		generator:         generator,
		tracker:           tracker,
		metrics:           m,
		validator:         NewValidator(),
		platformDomain:    cfg.PlatformDomain,
		deploymentTimeout: cfg.DeploymentTimeout,
	}
}

// ownedAgent fetches an agent and verifies the user owns it.
func (s *DeploymentService) ownedAgent(ctx context.Context, userID, agentID string) (*domain.Agent, error) {
	agent, err := s.store.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsOwnedBy(userID) {
		return nil, fmt.Errorf("%w: agent %s", domain.ErrNotAgentOwner, agentID)
	}
	return agent, nil
}

// step publishes a step transition. Progress is advisory, so failures are
// logged and ignored.
func (s *DeploymentService) step(ctx context.Context, agentID, stepID string, status domain.StepStatus, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	if terr := s.tracker.Update(ctx, agentID, stepID, status, message); terr != nil {
		slog.Warn("failed to update deployment progress",
			"agent_id", agentID,
			"step", stepID,
			"error", terr,
		)
	}
}

// Generate validates cfg, renders the site and creates the agent record.
func (s *DeploymentService) Generate(ctx context.Context, userID string, cfg domain.AgentConfig) (res *GenerateResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObservePhase(domain.StepGenerate, start, err) }()

	cfg = NormalizeConfig(cfg)
	if err := s.validator.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	taken, err := s.store.SubdomainExists(ctx, cfg.Subdomain)
	if err != nil {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubdomainTaken, cfg.Subdomain)
	}

	files := s.generator.Generate(cfg)

	agent := &domain.Agent{UserID: userID, AgentConfig: cfg}
	if err := s.store.Create(ctx, agent); err != nil {
		return nil, err
	}

	if err := s.tracker.Start(ctx, agent.ID); err != nil {
		slog.Warn("failed to start deployment progress", "agent_id", agent.ID, "error", err)
	}
	s.step(ctx, agent.ID, domain.StepGenerate, domain.StepSuccess, nil)

	slog.Info("agent generated",
		"agent_id", agent.ID,
		"user_id", userID,
		"subdomain", agent.Subdomain,
		"files", len(files),
	)

	return &GenerateResult{Agent: agent, Files: files}, nil
}

// Edit regenerates an existing agent from a new configuration. The
// subdomain cannot change, and an empty API key keeps the stored key.
// Repository and live URLs are preserved; re-run Upload to publish.
func (s *DeploymentService) Edit(ctx context.Context, userID, agentID string, cfg domain.AgentConfig) (res *GenerateResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObservePhase(domain.StepGenerate, start, err) }()

	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	cfg = NormalizeConfig(cfg)
	if cfg.Subdomain != "" && cfg.Subdomain != agent.Subdomain {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubdomainImmutable, agent.Subdomain)
	}
	cfg.Subdomain = agent.Subdomain
	if cfg.APIKey == "" {
		cfg.APIKey = agent.APIKey
	}

	if err := s.validator.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	files := s.generator.Generate(cfg)

	agent.AgentConfig = cfg
	if err := s.store.UpdateConfig(ctx, agent); err != nil {
		return nil, err
	}

	slog.Info("agent edited",
		"agent_id", agent.ID,
		"user_id", userID,
		"phase", agent.Phase(),
	)

	return &GenerateResult{Agent: agent, Files: files}, nil
}

// Upload pushes the agent's regenerated site to its repository, creating
// the repository on first upload.
func (s *DeploymentService) Upload(ctx context.Context, userID, agentID string) (res *UploadResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObservePhase(domain.StepUpload, start, err) }()

	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	s.step(ctx, agentID, domain.StepUpload, domain.StepLoading, nil)
	defer func() {
		if err != nil {
			s.step(ctx, agentID, domain.StepUpload, domain.StepError, err)
		}
	}()

	files := s.generator.Generate(agent.AgentConfig)

	fullName := agent.RepositoryFullName()
	repoURL := ""
	if agent.RepositoryURL != nil {
		repoURL = *agent.RepositoryURL
	}
	if fullName == "" {
		description := fmt.Sprintf("%s support agent for %s, generated by PLUDO.AI", agent.Name, agent.BrandName)
		repo, err := s.source.EnsureRepository(ctx, repoPrefix+agent.Subdomain, description)
		if err != nil {
			return nil, fmt.Errorf("create repository: %w", err)
		}
		fullName = repo.FullName
		repoURL = repo.HTMLURL
	}

	message := fmt.Sprintf("Update %s agent site", agent.Name)
	if agent.RepositoryURL == nil {
		message = fmt.Sprintf("Add %s agent site", agent.Name)
	}

	sha, err := s.source.UploadFiles(ctx, fullName, files, message)
	if err != nil {
		return nil, fmt.Errorf("upload files: %w", err)
	}

	if err := s.store.SetRepositoryURL(ctx, agentID, repoURL); err != nil {
		return nil, fmt.Errorf("save repository url: %w", err)
	}

	s.step(ctx, agentID, domain.StepUpload, domain.StepSuccess, nil)

	slog.Info("agent uploaded",
		"agent_id", agentID,
		"repo", fullName,
		"commit", sha,
		"files", len(files),
	)

	return &UploadResult{RepositoryURL: repoURL, CommitSHA: sha}, nil
}

// Deploy links the agent's repository to a build project, waits for the
// build and records the live URL.
func (s *DeploymentService) Deploy(ctx context.Context, userID, agentID string) (res *DeployResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObservePhase(domain.StepDeploy, start, err) }()

	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	fullName := agent.RepositoryFullName()
	if fullName == "" {
		return nil, fmt.Errorf("%w: agent %s", domain.ErrNotUploaded, agentID)
	}

	s.step(ctx, agentID, domain.StepDeploy, domain.StepLoading, nil)
	defer func() {
		if err != nil {
			s.step(ctx, agentID, domain.StepDeploy, domain.StepError, err)
		}
	}()

	projectName := github.SanitizeRepoName(agent.Subdomain)
	project, err := s.build.GetProject(ctx, projectName)
	if errors.Is(err, hostapi.ErrNotFound) {
		project, err = s.build.CreateProject(ctx, projectName, fullName)
	}
	if err != nil {
		return nil, fmt.Errorf("prepare project: %w", err)
	}

	domainName := agent.Subdomain + "." + s.platformDomain
	if err := s.build.AddDomain(ctx, project.ID, domainName); err != nil {
		slog.Warn("failed to attach domain",
			"agent_id", agentID,
			"project_id", project.ID,
			"domain", domainName,
			"error", err,
		)
	}

	deployment, err := s.build.WaitForDeployment(ctx, project, s.deploymentTimeout)
	if err != nil {
		return nil, err
	}

	liveURL := s.generator.SiteURL(agent.Subdomain)
	if err := s.store.SetLiveURL(ctx, agentID, liveURL); err != nil {
		return nil, fmt.Errorf("save live url: %w", err)
	}

	s.step(ctx, agentID, domain.StepDeploy, domain.StepSuccess, nil)

	slog.Info("agent deployed",
		"agent_id", agentID,
		"project_id", project.ID,
		"deployment_id", deployment.UID,
		"live_url", liveURL,
	)

	return &DeployResult{
		LiveURL:       liveURL,
		EmbedSnippet:  s.generator.EmbedSnippet(agent.Subdomain),
		DeploymentURL: deployment.LiveURL(),
		ProjectID:     project.ID,
	}, nil
}

// DeployAll runs generate, upload and deploy in order and stops at the
// first failure, returning a *PhaseError alongside the phases that completed.
func (s *DeploymentService) DeployAll(ctx context.Context, userID string, cfg domain.AgentConfig) (*PipelineResult, error) {
	result := &PipelineResult{}

	gen, err := s.Generate(ctx, userID, cfg)
	if err != nil {
		return result, &PhaseError{Phase: domain.StepGenerate, Err: err}
	}
	result.AgentID = gen.Agent.ID
	result.Generate = gen

	up, err := s.Upload(ctx, userID, gen.Agent.ID)
	if err != nil {
		return result, &PhaseError{Phase: domain.StepUpload, Err: err}
	}
	result.Upload = up

	dep, err := s.Deploy(ctx, userID, gen.Agent.ID)
	if err != nil {
		return result, &PhaseError{Phase: domain.StepDeploy, Err: err}
	}
	result.Deploy = dep

	return result, nil
}

// Redeploy resumes the pipeline for an existing agent from its persisted
// phase: upload when nothing has been uploaded yet, then deploy.
func (s *DeploymentService) Redeploy(ctx context.Context, userID, agentID string) (*PipelineResult, error) {
	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	result := &PipelineResult{AgentID: agentID}

	if err := s.tracker.Start(ctx, agentID); err != nil {
		slog.Warn("failed to start deployment progress", "agent_id", agentID, "error", err)
	}
	s.step(ctx, agentID, domain.StepGenerate, domain.StepSuccess, nil)
	if agent.Phase() != domain.PhaseGenerated {
		s.step(ctx, agentID, domain.StepUpload, domain.StepSuccess, nil)
	}

	if agent.Phase() == domain.PhaseGenerated {
		up, err := s.Upload(ctx, userID, agentID)
		if err != nil {
			return result, &PhaseError{Phase: domain.StepUpload, Err: err}
		}
		result.Upload = up
	}

	dep, err := s.Deploy(ctx, userID, agentID)
	if err != nil {
		return result, &PhaseError{Phase: domain.StepDeploy, Err: err}
	}
	result.Deploy = dep

	return result, nil
}

// Delete removes the agent. Repository deletion is best effort; the record
// is deleted even when the host refuses.
func (s *DeploymentService) Delete(ctx context.Context, userID, agentID string) error {
	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return err
	}

	if fullName := agent.RepositoryFullName(); fullName != "" {
		if err := s.source.DeleteRepository(ctx, fullName); err != nil {
			slog.Warn("failed to delete agent repository",
				"agent_id", agentID,
				"repo", fullName,
				"error", err,
			)
		}
	}

	if err := s.store.Delete(ctx, agentID); err != nil {
		return err
	}

	slog.Info("agent deleted", "agent_id", agentID, "user_id", userID)
	return nil
}

// Get returns one of the user's agents.
func (s *DeploymentService) Get(ctx context.Context, userID, agentID string) (*domain.Agent, error) {
	return s.ownedAgent(ctx, userID, agentID)
}

// List returns the user's agents, newest first.
func (s *DeploymentService) List(ctx context.Context, userID string) ([]*domain.Agent, error) {
	return s.store.ListByUser(ctx, userID)
}

// Files renders the agent's site as it would be uploaded now.
func (s *DeploymentService) Files(ctx context.Context, userID, agentID string) ([]domain.GeneratedFile, error) {
	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(agent.AgentConfig), nil
}

// Steps returns the latest run's progress. Without a tracked run the steps
// are derived from the persisted phase.
func (s *DeploymentService) Steps(ctx context.Context, userID, agentID string) ([]domain.DeploymentStep, error) {
	agent, err := s.ownedAgent(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	steps, err := s.tracker.Get(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if steps != nil {
		return steps, nil
	}

	steps = domain.NewDeploymentSteps()
	done := map[domain.Phase]int{
		domain.PhaseGenerated: 1,
		domain.PhaseUploaded:  2,
		domain.PhaseDeployed:  3,
	}[agent.Phase()]
	for i := 0; i < done; i++ {
		steps[i].Status = domain.StepSuccess
	}
	return steps, nil
}

// SubdomainAvailable reports whether a subdomain is valid and unused.
func (s *DeploymentService) SubdomainAvailable(ctx context.Context, subdomain string) (bool, error) {
	if err := s.validator.ValidateSubdomain(subdomain); err != nil {
		return false, err
	}
	taken, err := s.store.SubdomainExists(ctx, subdomain)
	if err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return !taken, nil
}

// EmbedSnippet returns the embed tag for a subdomain.
func (s *DeploymentService) EmbedSnippet(subdomain string) string {
	return s.generator.EmbedSnippet(subdomain)
}
