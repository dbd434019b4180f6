package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mtlprog/pludo/internal/config"
	"github.com/mtlprog/pludo/internal/database"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/metrics"
	"github.com/mtlprog/pludo/internal/progress"
	"github.com/mtlprog/pludo/internal/repository"
	"github.com/mtlprog/pludo/internal/secret"
	"github.com/mtlprog/pludo/internal/service"
	"github.com/mtlprog/pludo/internal/sitegen"
	"github.com/mtlprog/pludo/internal/vercel"
)

// pipeline is the wired deployment stack shared by serve and redeploy.
type pipeline struct {
	deployments *service.DeploymentService
	chat        *service.ChatService
	metrics     *metrics.Metrics
	closers     []func() error
}

func newPipeline(ctx context.Context, cfg config.Config, db *database.DB) (*pipeline, error) {
	sealer, err := secret.NewSealer(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	p := &pipeline{metrics: m}

	var tracker progress.Tracker = progress.NewMemoryTracker()
	if cfg.RedisURL != "" {
		rt, err := progress.NewRedisTracker(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, rt.Close)
		tracker = rt
	}

	store := repository.NewAgentRepository(db.Pool(), sealer)

	source := github.NewClient(github.Options{
		Token:       cfg.GitHubToken,
		Org:         cfg.GitHubOrg,
		SettleDelay: github.DefaultSettleDelay,
		BlobSpacing: github.DefaultBlobSpacing,
	})

	build := vercel.NewClient(vercel.Options{
		Token:  cfg.VercelToken,
		TeamID: cfg.VercelTeamID,
		Scope:  cfg.VercelScope,
	})

	generator := sitegen.New(sitegen.Options{
		PlatformDomain: cfg.PlatformDomain,
		APIBaseURL:     cfg.PublicAPIURL,
	})

	p.deployments = service.NewDeploymentService(store, source, build, generator, tracker, m, service.DeploymentConfig{
		PlatformDomain:    cfg.PlatformDomain,
		DeploymentTimeout: cfg.DeploymentTimeout,
	})

	p.chat = service.NewChatService(store, llm.NewClient(llm.Options{}), m, service.ChatConfig{
		RequestsPerMinute: cfg.ChatRequestsPerMinute,
		Burst:             cfg.ChatBurst,
	})

	return p, nil
}

// Close releases connections opened by newPipeline.
func (p *pipeline) Close() {
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil {
			slog.Warn("failed to close pipeline resource", "error", err)
		}
	}
}
