package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/pludo/internal/config"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Aliases: []string{"d"},
			Value:   config.DefaultDatabaseURL,
			Usage:   "PostgreSQL database URL",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-conns",
			Value:   config.DefaultMaxConns,
			Usage:   "Maximum database connections",
			EnvVars: []string{"DATABASE_MAX_CONNS"},
		},
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultPort,
			Usage:   "HTTP server port",
			EnvVars: []string{"PORT"},
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "HMAC secret for dashboard API tokens",
			EnvVars: []string{"JWT_SECRET"},
		},
		&cli.StringFlag{
			Name:    "encryption-key",
			Usage:   "32-byte key (hex or base64) sealing provider API keys at rest",
			EnvVars: []string{"ENCRYPTION_KEY"},
		},
		&cli.StringFlag{
			Name:    "github-token",
			Usage:   "GitHub personal access token with repo scope",
			EnvVars: []string{"GITHUB_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "github-org",
			Usage:   "Create agent repositories under this organization",
			EnvVars: []string{"GITHUB_ORG"},
		},
		&cli.StringFlag{
			Name:    "vercel-token",
			Usage:   "Vercel API token",
			EnvVars: []string{"VERCEL_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "vercel-team-id",
			Usage:   "Vercel team id for project operations",
			EnvVars: []string{"VERCEL_TEAM_ID"},
		},
		&cli.StringFlag{
			Name:    "vercel-scope",
			Usage:   "Vercel team or user slug used in dashboard links",
			EnvVars: []string{"VERCEL_SCOPE"},
		},
		&cli.StringFlag{
			Name:    "platform-domain",
			Value:   config.DefaultPlatformDomain,
			Usage:   "Parent domain of agent subdomains",
			EnvVars: []string{"PLATFORM_DOMAIN"},
		},
		&cli.StringFlag{
			Name:    "public-api-url",
			Value:   config.DefaultPublicAPIURL,
			Usage:   "Public base URL of this API, used by generated sites for chat",
			EnvVars: []string{"PUBLIC_API_URL"},
		},
		&cli.StringSliceFlag{
			Name:    "cors-origin",
			Usage:   "Extra browser origin allowed to call the chat API (repeatable, * for any)",
			EnvVars: []string{"CORS_ORIGINS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for shared deployment progress (in-memory when empty)",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.DurationFlag{
			Name:    "deployment-timeout",
			Value:   config.DefaultDeploymentTimeout,
			Usage:   "Maximum wait for a build to become ready",
			EnvVars: []string{"DEPLOYMENT_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "chat-requests-per-minute",
			Value:   config.DefaultChatRequestsPerMinute,
			Usage:   "Sustained chat requests per minute per agent",
			EnvVars: []string{"CHAT_REQUESTS_PER_MINUTE"},
		},
		&cli.IntFlag{
			Name:    "chat-burst",
			Value:   config.DefaultChatBurst,
			Usage:   "Chat burst allowance per agent",
			EnvVars: []string{"CHAT_BURST"},
		},
	}
}
