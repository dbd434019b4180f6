// @title						PLUDO API
// @version					1.0
// @description				Generate, publish and host customer support agents.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/pludo/internal/config"
	"github.com/mtlprog/pludo/internal/database"
	"github.com/mtlprog/pludo/internal/handler"
	"github.com/mtlprog/pludo/internal/logger"
	"github.com/mtlprog/pludo/internal/middleware"
)

func main() {
	// Flags read the environment while parsing, so .env must be loaded first.
	// Variables already set in the shell win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "pludo",
		Usage: "Generate, publish and host customer support agents",
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the API server",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: runMigrate,
			},
			{
				Name:  "redeploy",
				Usage: "Resume upload and deploy for an existing agent",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agent-id", Usage: "Agent UUID", Required: true},
					&cli.StringFlag{Name: "user-id", Usage: "Owner user id", Required: true},
				},
				Action: runRedeploy,
			},
			{
				Name:  "token",
				Usage: "Issue a dashboard API token for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Usage: "User id placed in the sub claim", Required: true},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "Token lifetime"},
				},
				Action: runToken,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	cfg := loadConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	p, err := newPipeline(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer p.Close()

	h := handler.New(handler.Deps{
		DB:          db,
		Deployments: p.deployments,
		Chat:        p.chat,
		Auth:        middleware.NewAuthMiddleware(cfg.JWTSecret),
		CORS:        middleware.NewCORS(cfg.PlatformDomain, cfg.CORSOrigins),
		Metrics:     p.metrics,
	})

	// Deploy requests hold the connection for the whole build wait.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.DeploymentTimeout + 2*time.Minute,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server",
			"server_addr", "http://localhost:"+cfg.Port,
			"platform_domain", cfg.PlatformDomain,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMigrate(c *cli.Context) error {
	ctx := c.Context

	databaseURL := c.String("database-url")
	if databaseURL == "" {
		return errors.New("database url is required")
	}

	db, err := database.New(ctx, databaseURL, 1)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if c.Bool("down") {
		return database.RollbackMigration(ctx, db.Pool())
	}
	return database.RunMigrations(ctx, db.Pool())
}

func runRedeploy(c *cli.Context) error {
	ctx := c.Context

	cfg := loadConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	p, err := newPipeline(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer p.Close()

	agentID := c.String("agent-id")
	res, err := p.deployments.Redeploy(ctx, c.String("user-id"), agentID)
	if err != nil {
		return fmt.Errorf("redeploy %s: %w", agentID, err)
	}

	slog.Info("redeploy finished",
		"agent_id", agentID,
		"live_url", res.Deploy.LiveURL,
		"embed", res.Deploy.EmbedSnippet,
	)
	fmt.Fprintln(c.App.Writer, res.Deploy.EmbedSnippet)
	return nil
}

func runToken(c *cli.Context) error {
	jwtSecret := c.String("jwt-secret")
	if jwtSecret == "" {
		return errors.New("jwt secret is required")
	}

	token, err := middleware.NewAuthMiddleware(jwtSecret).IssueToken(c.String("user-id"), c.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func loadConfig(c *cli.Context) config.Config {
	cfg := config.Default()

	cfg.DatabaseURL = c.String("database-url")
	cfg.MaxConns = int32(c.Int("max-conns"))
	cfg.JWTSecret = c.String("jwt-secret")
	cfg.EncryptionKey = c.String("encryption-key")
	cfg.GitHubToken = c.String("github-token")
	cfg.GitHubOrg = c.String("github-org")
	cfg.VercelToken = c.String("vercel-token")
	cfg.VercelTeamID = c.String("vercel-team-id")
	cfg.VercelScope = c.String("vercel-scope")
	cfg.PlatformDomain = c.String("platform-domain")
	cfg.PublicAPIURL = c.String("public-api-url")
	cfg.RedisURL = c.String("redis-url")
	cfg.DeploymentTimeout = c.Duration("deployment-timeout")

	cfg.Port = c.String("port")
	cfg.CORSOrigins = c.StringSlice("cors-origin")
	cfg.ChatRequestsPerMinute = c.Int("chat-requests-per-minute")
	cfg.ChatBurst = c.Int("chat-burst")

	return cfg
}
