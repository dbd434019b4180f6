// Package config holds the runtime settings shared by the CLI commands.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mtlprog/pludo/internal/secret"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultPlatformDomain is the parent domain of every agent subdomain.
	DefaultPlatformDomain = "pludo.ai"

	// DefaultPublicAPIURL is where generated sites reach the chat proxy.
	DefaultPublicAPIURL = "https://api.pludo.ai"

	// DefaultDeploymentTimeout bounds the wait for a build to become ready.
	DefaultDeploymentTimeout = 5 * time.Minute

	// DefaultChatRequestsPerMinute is the sustained chat rate per agent.
	DefaultChatRequestsPerMinute = 30

	// DefaultChatBurst is the chat burst allowance per agent.
	DefaultChatBurst = 5

	// DefaultMaxConns is the database pool size.
	DefaultMaxConns = 10
)

// Config is the resolved configuration for the serve and redeploy commands.
type Config struct {
	Port        string
	DatabaseURL string
	MaxConns    int32

	JWTSecret     string
	EncryptionKey string

	GitHubToken string
	GitHubOrg   string

	VercelToken  string
	VercelTeamID string
	VercelScope  string

	PlatformDomain    string
	PublicAPIURL      string
	CORSOrigins       []string
	RedisURL          string
	DeploymentTimeout time.Duration

	ChatRequestsPerMinute int
	ChatBurst             int
}

// Default returns a Config with every optional setting filled in.
func Default() Config {
	return Config{
		Port:                  DefaultPort,
		DatabaseURL:           DefaultDatabaseURL,
		MaxConns:              DefaultMaxConns,
		PlatformDomain:        DefaultPlatformDomain,
		PublicAPIURL:          DefaultPublicAPIURL,
		DeploymentTimeout:     DefaultDeploymentTimeout,
		ChatRequestsPerMinute: DefaultChatRequestsPerMinute,
		ChatBurst:             DefaultChatBurst,
	}
}

// Validate checks that the settings needed to run the pipeline are present.
// All problems are reported together.
func (c Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if _, err := secret.ParseKey(c.EncryptionKey); err != nil {
		errs = append(errs, fmt.Errorf("encryption key: %w", err))
	}
	if c.GitHubToken == "" {
		errs = append(errs, errors.New("github token is required"))
	}
	if c.VercelToken == "" {
		errs = append(errs, errors.New("vercel token is required"))
	}
	if c.PlatformDomain == "" || strings.ContainsAny(c.PlatformDomain, "/: ") {
		errs = append(errs, fmt.Errorf("platform domain %q must be a bare host name", c.PlatformDomain))
	}
	if u, err := url.Parse(c.PublicAPIURL); err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		errs = append(errs, fmt.Errorf("public api url %q must be an absolute http(s) URL", c.PublicAPIURL))
	}
	if c.DeploymentTimeout <= 0 {
		errs = append(errs, errors.New("deployment timeout must be positive"))
	}
	if c.ChatRequestsPerMinute <= 0 || c.ChatBurst <= 0 {
		errs = append(errs, errors.New("chat rate limits must be positive"))
	}
	if c.MaxConns <= 0 {
		errs = append(errs, errors.New("max connections must be positive"))
	}

	return errors.Join(errs...)
}
