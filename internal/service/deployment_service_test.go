package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/metrics"
	"github.com/mtlprog/pludo/internal/progress"
	"github.com/mtlprog/pludo/internal/service"
	"github.com/mtlprog/pludo/internal/sitegen"
	"github.com/mtlprog/pludo/internal/testutil"
	"github.com/mtlprog/pludo/internal/vercel"
)

const (
	userID         = "user-1"
	platformDomain = "pludo.ai"
)

type env struct {
	svc     *service.DeploymentService
	store   *testutil.MemoryStore
	source  *testutil.FakeSourceHost
	build   *testutil.FakeBuildHost
	tracker *progress.MemoryTracker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:   testutil.NewMemoryStore(),
		source:  testutil.NewFakeSourceHost(),
		build:   testutil.NewFakeBuildHost(),
		tracker: progress.NewMemoryTracker(),
	}
	generator := sitegen.New(sitegen.Options{PlatformDomain: platformDomain, APIBaseURL: "https://api.pludo.ai"})
	e.svc = service.NewDeploymentService(
		e.store, e.source, e.build, generator, e.tracker,
		metrics.New(prometheus.NewRegistry()),
		service.DeploymentConfig{PlatformDomain: platformDomain},
	)
	return e
}

// samConfig is the Acme support agent used across the pipeline tests.
func samConfig() domain.AgentConfig {
	return domain.AgentConfig{
		Name:        "Sam",
		BrandName:   "Acme",
		Subdomain:   "acme",
		Services:    []string{"Support"},
		FAQs:        []domain.FAQ{{Question: "Hours?", Answer: "9-5"}},
		APIProvider: "openrouter",
		APIKey:      "sk-x",
		Model:       "deepseek/deepseek-r1",
	}
}

func permissionError() error {
	return &hostapi.APIError{Host: "github", Op: "create blob", StatusCode: http.StatusForbidden, Message: "Resource not accessible"}
}

func filePaths(files []domain.GeneratedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestDeployAll_SamAcme(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.DeployAll(ctx, userID, samConfig())
	require.NoError(t, err)

	var knowledge string
	for _, f := range res.Generate.Files {
		if f.Path == "knowledge.txt" {
			knowledge = f.Content
		}
	}
	assert.Contains(t, knowledge, "Q: Hours?\nA: 9-5")

	uploads := e.source.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "pludo/pludo-acme", uploads[0].FullName)
	assert.Equal(t, filePaths(res.Generate.Files), filePaths(uploads[0].Files))

	assert.Equal(t, "https://acme.pludo.ai", res.Deploy.LiveURL)
	assert.Equal(t, `<script src="https://acme.pludo.ai/widget.js" defer></script>`, res.Deploy.EmbedSnippet)
	assert.Contains(t, res.Deploy.EmbedSnippet, res.Deploy.LiveURL)
	assert.Equal(t, []string{"acme.pludo.ai"}, e.build.Domains(res.Deploy.ProjectID))

	agent, err := e.svc.Get(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDeployed, agent.Phase())
	assert.Equal(t, "https://github.com/pludo/pludo-acme", *agent.RepositoryURL)

	steps, err := e.svc.Steps(ctx, userID, res.AgentID)
	require.NoError(t, err)
	for _, s := range steps {
		assert.Equal(t, domain.StepSuccess, s.Status, s.ID)
	}
}

func TestGenerate_DefaultsOptionalPresentation(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Generate(context.Background(), userID, samConfig())
	require.NoError(t, err)

	assert.Equal(t, domain.ToneProfessional, res.Agent.Tone)
	assert.Equal(t, sitegen.DefaultColor, res.Agent.PrimaryColor)
	assert.Equal(t, domain.DefaultAgentType, res.Agent.AgentType)
	assert.Equal(t, domain.PhaseGenerated, res.Agent.Phase())
}

func TestGenerate_ValidationHappensBeforeAnyWrite(t *testing.T) {
	e := newEnv(t)
	cfg := samConfig()
	cfg.Name = "  "

	_, err := e.svc.DeployAll(context.Background(), userID, cfg)

	var phaseErr *service.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, domain.StepGenerate, phaseErr.Phase)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.store.Len())
	assert.Empty(t, e.source.Uploads())
}

func TestGenerate_SubdomainTaken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	_, err = e.svc.Generate(ctx, "user-2", samConfig())
	assert.ErrorIs(t, err, domain.ErrSubdomainTaken)
	assert.Equal(t, 1, e.store.Len())
}

func TestDeployAll_UploadFailureIsResumable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.source.UploadErr = permissionError()

	res, err := e.svc.DeployAll(ctx, userID, samConfig())

	var phaseErr *service.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, domain.StepUpload, phaseErr.Phase)
	assert.ErrorIs(t, err, hostapi.ErrPermission)
	require.NotNil(t, res.Generate)
	assert.Nil(t, res.Upload)
	assert.Nil(t, res.Deploy)

	agent, err := e.svc.Get(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseGenerated, agent.Phase())

	steps, err := e.svc.Steps(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepError, steps[1].Status)
	assert.Contains(t, steps[1].Message, "Resource not accessible")

	e.source.UploadErr = nil
	again, err := e.svc.Redeploy(ctx, userID, res.AgentID)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.pludo.ai", again.Deploy.LiveURL)
	assert.Equal(t, 1, e.source.Creates())
	assert.Equal(t, 1, e.store.Len())
}

func TestDeploy_RequiresUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	gen, err := e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	_, err = e.svc.Deploy(ctx, userID, gen.Agent.ID)
	assert.ErrorIs(t, err, domain.ErrNotUploaded)
}

func TestDeploy_FailureLeavesUploadedAndReusesProject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.build.WaitErr = &vercel.DeploymentError{Err: vercel.ErrDeploymentTimeout, DashboardURL: "https://vercel.com/pludo/acme"}

	res, err := e.svc.DeployAll(ctx, userID, samConfig())
	require.ErrorIs(t, err, vercel.ErrDeploymentTimeout)

	agent, err := e.svc.Get(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseUploaded, agent.Phase())
	require.NotNil(t, agent.RepositoryURL)
	repoURL := *agent.RepositoryURL
	repoID := e.source.RepositoryID(agent.RepositoryFullName())
	require.NotZero(t, repoID)

	e.build.WaitErr = nil
	dep, err := e.svc.Deploy(ctx, userID, res.AgentID)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.pludo.ai", dep.LiveURL)
	assert.Equal(t, 1, e.build.Creates())
	assert.Len(t, e.source.Uploads(), 1)

	deployed, err := e.svc.Get(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDeployed, deployed.Phase())
	require.NotNil(t, deployed.RepositoryURL)
	assert.Equal(t, repoURL, *deployed.RepositoryURL)
	assert.Equal(t, repoID, e.source.RepositoryID(deployed.RepositoryFullName()))
	assert.Equal(t, 1, e.source.Creates())
}

func TestDeploy_DomainAttachIsBestEffort(t *testing.T) {
	e := newEnv(t)
	e.build.DomainErr = errors.New("domain quota exceeded")

	res, err := e.svc.DeployAll(context.Background(), userID, samConfig())
	require.NoError(t, err)

	assert.Equal(t, "https://acme.pludo.ai", res.Deploy.LiveURL)
}

func TestDeploy_BuildErrorSurfaced(t *testing.T) {
	e := newEnv(t)
	e.build.State = vercel.StateError

	_, err := e.svc.DeployAll(context.Background(), userID, samConfig())

	assert.ErrorIs(t, err, vercel.ErrDeploymentFailed)
}

func TestUpload_ReusesRecordedRepository(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.DeployAll(ctx, userID, samConfig())
	require.NoError(t, err)

	_, err = e.svc.Upload(ctx, userID, res.AgentID)
	require.NoError(t, err)

	uploads := e.source.Uploads()
	require.Len(t, uploads, 2)
	assert.Equal(t, uploads[0].FullName, uploads[1].FullName)
	assert.Equal(t, "Add Sam agent site", uploads[0].Message)
	assert.Equal(t, "Update Sam agent site", uploads[1].Message)
	assert.Equal(t, 1, e.source.Creates())
}

func TestDelete_RepositoryAlreadyGone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.DeployAll(ctx, userID, samConfig())
	require.NoError(t, err)

	e.source.DeleteErr = &hostapi.APIError{Host: "github", Op: "delete repository", StatusCode: http.StatusNotFound, Message: "Not Found"}

	require.NoError(t, e.svc.Delete(ctx, userID, res.AgentID))

	assert.Equal(t, []string{"pludo/pludo-acme"}, e.source.Deleted())
	_, err = e.svc.Get(ctx, userID, res.AgentID)
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}

func TestDelete_WithoutRepositorySkipsHost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	gen, err := e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, userID, gen.Agent.ID))
	assert.Empty(t, e.source.Deleted())
	assert.Equal(t, 0, e.store.Len())
}

func TestOwnershipEnforced(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	gen, err := e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	_, err = e.svc.Get(ctx, "intruder", gen.Agent.ID)
	assert.ErrorIs(t, err, domain.ErrNotAgentOwner)
	_, err = e.svc.Upload(ctx, "intruder", gen.Agent.ID)
	assert.ErrorIs(t, err, domain.ErrNotAgentOwner)
	assert.ErrorIs(t, e.svc.Delete(ctx, "intruder", gen.Agent.ID), domain.ErrNotAgentOwner)
	assert.Equal(t, 1, e.store.Len())
}

func TestEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.DeployAll(ctx, userID, samConfig())
	require.NoError(t, err)

	cfg := samConfig()
	cfg.Tone = domain.ToneWitty
	cfg.APIKey = ""
	cfg.FAQs = append(cfg.FAQs, domain.FAQ{Question: "Refunds?", Answer: "30 days"})

	edited, err := e.svc.Edit(ctx, userID, res.AgentID, cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.ToneWitty, edited.Agent.Tone)
	assert.Equal(t, "sk-x", edited.Agent.APIKey)
	assert.Equal(t, domain.PhaseDeployed, edited.Agent.Phase())

	stored, err := e.svc.Get(ctx, userID, res.AgentID)
	require.NoError(t, err)
	assert.Len(t, stored.FAQs, 2)
	assert.Equal(t, "sk-x", stored.APIKey)

	cfg.Subdomain = "acme-two"
	_, err = e.svc.Edit(ctx, userID, res.AgentID, cfg)
	assert.ErrorIs(t, err, domain.ErrSubdomainImmutable)
}

func TestEdit_KeyRequiredWhenNoneStored(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	legacy := samConfig()
	legacy.APIKey = ""
	agent := &domain.Agent{UserID: userID, AgentConfig: legacy}
	require.NoError(t, e.store.Create(ctx, agent))

	_, err := e.svc.Edit(ctx, userID, agent.ID, legacy)
	assert.ErrorIs(t, err, domain.ErrValidation)

	withKey := legacy
	withKey.APIKey = "sk-new"
	edited, err := e.svc.Edit(ctx, userID, agent.ID, withKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-new", edited.Agent.APIKey)
}

func TestSteps_DerivedFromPhaseWithoutTrackedRun(t *testing.T) {
	store := testutil.NewMemoryStore()
	tracker := progress.NewMemoryTracker()
	generator := sitegen.New(sitegen.Options{PlatformDomain: platformDomain})
	svc := service.NewDeploymentService(store, testutil.NewFakeSourceHost(), testutil.NewFakeBuildHost(),
		generator, tracker, nil, service.DeploymentConfig{PlatformDomain: platformDomain})
	ctx := context.Background()

	repoURL := "https://github.com/pludo/pludo-acme"
	agent := &domain.Agent{UserID: userID, AgentConfig: samConfig(), RepositoryURL: &repoURL}
	require.NoError(t, store.Create(ctx, agent))

	steps, err := svc.Steps(ctx, userID, agent.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StepSuccess, steps[0].Status)
	assert.Equal(t, domain.StepSuccess, steps[1].Status)
	assert.Equal(t, domain.StepPending, steps[2].Status)
}

func TestSubdomainAvailable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ok, err := e.svc.SubdomainAvailable(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	ok, err = e.svc.SubdomainAvailable(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.svc.SubdomainAvailable(ctx, "api")
	assert.ErrorIs(t, err, domain.ErrInvalidSubdomain)
}

func TestFiles_MatchGeneratedSite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	gen, err := e.svc.Generate(ctx, userID, samConfig())
	require.NoError(t, err)

	files, err := e.svc.Files(ctx, userID, gen.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.Files, files)
}
