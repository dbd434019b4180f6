// Package vercel is a client for the Vercel REST API covering project
// creation, domain attachment and deployment status polling.
package vercel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/poll"
)

const (
	// DefaultBaseURL is the public Vercel API.
	DefaultBaseURL = "https://api.vercel.com"
	// DefaultDashboardURL is where users are sent for manual recovery.
	DefaultDashboardURL = "https://vercel.com"
)

// BuildSettings is the fixed build configuration for generated sites.
type BuildSettings struct {
	InstallCommand  string
	BuildCommand    string
	DevCommand      string
	OutputDirectory string
	Framework       string
}

// DefaultBuildSettings matches the generated Vite project.
var DefaultBuildSettings = BuildSettings{
	InstallCommand:  "npm install",
	BuildCommand:    "npm run build",
	DevCommand:      "npm run dev",
	OutputDirectory: "dist",
	Framework:       "vite",
}

// Policies groups the bounded waits the client performs.
type Policies struct {
	// Link waits for the repository connection after project creation.
	Link poll.Policy
	// Discovery waits for the first deployment to appear.
	Discovery poll.Policy
	// Status spaces deployment status checks. Its timeout is supplied per call.
	Status poll.Policy
}

// DefaultPolicies are the production wait settings.
var DefaultPolicies = Policies{
	Link:      poll.Policy{InitialDelay: 3 * time.Second, Interval: 2 * time.Second, MaxAttempts: 10},
	Discovery: poll.Policy{Interval: 5 * time.Second, Timeout: 2 * time.Minute},
	Status:    poll.Policy{Interval: 5 * time.Second},
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	TeamID  string
	// Scope is the team or user slug used in dashboard links.
	Scope      string
	HTTPClient *http.Client
	Clock      poll.Clock
	Policies   *Policies
	Build      *BuildSettings
}

// Client talks to the Vercel REST API.
type Client struct {
	api      *hostapi.Client
	clock    poll.Clock
	policies Policies
	build    BuildSettings
	scope    string
}

// NewClient creates a new Client authenticated with a bearer token.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Clock == nil {
		opts.Clock = poll.Real()
	}
	policies := DefaultPolicies
	if opts.Policies != nil {
		policies = *opts.Policies
	}
	build := DefaultBuildSettings
	if opts.Build != nil {
		build = *opts.Build
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	httpClient.Timeout = 30 * time.Second

	var query url.Values
	if opts.TeamID != "" {
		query = url.Values{"teamId": {opts.TeamID}}
	}

	return &Client{
		api: &hostapi.Client{
			Host:       "vercel",
			BaseURL:    opts.BaseURL,
			HTTPClient: httpClient,
			Hint:       hint,
			DecodeErr:  decodeError,
			Query:      query,
		},
		clock:    opts.Clock,
		policies: policies,
		build:    build,
		scope:    opts.Scope,
	}
}

// DashboardURL returns the dashboard page for a project.
func (c *Client) DashboardURL(projectName string) string {
	if c.scope == "" {
		return DefaultDashboardURL + "/dashboard"
	}
	return fmt.Sprintf("%s/%s/%s", DefaultDashboardURL, c.scope, projectName)
}

// GetProject fetches a project by id or name.
func (c *Client) GetProject(ctx context.Context, idOrName string) (*Project, error) {
	var project Project
	path := "/v9/projects/" + url.PathEscape(idOrName)
	if err := c.api.Do(ctx, "get project", http.MethodGet, path, nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project connected to a GitHub repository
// ("owner/name") and waits for the host to confirm the connection. The
// connection is established asynchronously; if it is never confirmed the
// best-known project is returned with Linked() == false.
func (c *Client) CreateProject(ctx context.Context, name, gitRepo string) (*Project, error) {
	req := createProjectRequest{
		Name:            name,
		GitRepository:   gitRepository{Type: "github", Repo: gitRepo},
		BuildCommand:    c.build.BuildCommand,
		DevCommand:      c.build.DevCommand,
		InstallCommand:  c.build.InstallCommand,
		OutputDirectory: c.build.OutputDirectory,
		Framework:       c.build.Framework,
	}

	var project Project
	if err := c.api.Do(ctx, "create project", http.MethodPost, "/v10/projects", nil, req, &project); err != nil {
		return nil, err
	}

	slog.Info("vercel project created", "project_id", project.ID, "name", project.Name, "repo", gitRepo)

	if project.Linked() {
		return &project, nil
	}

	best := &project
	err := poll.Until(ctx, c.clock, c.policies.Link, func(ctx context.Context) (bool, error) {
		latest, err := c.GetProject(ctx, project.ID)
		if err != nil {
			// Transient read failures do not abort the link wait.
			slog.Warn("project link check failed", "project_id", project.ID, "error", err)
			return false, nil
		}
		best = latest
		return latest.Linked(), nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			slog.Warn("project repository link not confirmed",
				"project_id", project.ID,
				"repo", gitRepo,
				"dashboard", c.DashboardURL(project.Name),
			)
			return best, nil
		}
		return best, err
	}

	slog.Info("vercel project linked", "project_id", best.ID, "repo_id", best.Link.RepoID)
	return best, nil
}

// AddDomain attaches a domain to a project. A domain that is already
// attached is not an error.
func (c *Client) AddDomain(ctx context.Context, projectID, domain string) error {
	path := "/v10/projects/" + url.PathEscape(projectID) + "/domains"
	err := c.api.Do(ctx, "add domain", http.MethodPost, path, nil, addDomainRequest{Name: domain}, nil)
	if err != nil && !errors.Is(err, hostapi.ErrConflict) {
		return err
	}
	return nil
}

// latestDeployment returns the most recent deployment of the project, or nil.
func (c *Client) latestDeployment(ctx context.Context, projectID string) (*Deployment, error) {
	query := url.Values{"projectId": {projectID}, "limit": {"1"}}
	var resp listDeploymentsResponse
	if err := c.api.Do(ctx, "list deployments", http.MethodGet, "/v6/deployments", query, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Deployments) == 0 {
		return nil, nil
	}
	return &resp.Deployments[0], nil
}

// WaitForDeployment waits for the deployment of project triggered by the
// last push and returns it once READY. It first waits for any deployment to appear,
// then follows the most recent one until it reaches a terminal state. The
// whole wait is bounded by maxWait.
func (c *Client) WaitForDeployment(ctx context.Context, project *Project, maxWait time.Duration) (*Deployment, error) {
	start := c.clock.Now()
	projectID := project.ID
	dashboard := c.DashboardURL(project.Name)

	var latest *Deployment
	discovery := c.policies.Discovery.WithTimeout(maxWait)
	err := poll.Until(ctx, c.clock, discovery, func(ctx context.Context) (bool, error) {
		d, err := c.latestDeployment(ctx, projectID)
		if err != nil {
			return false, err
		}
		latest = d
		return d != nil, nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			return nil, &DeploymentError{Err: ErrNoDeployment, DashboardURL: dashboard}
		}
		return nil, err
	}

	slog.Info("deployment discovered", "project_id", projectID, "deployment_id", latest.UID, "state", latest.State)

	if done, err := c.terminal(latest, dashboard); done {
		return latest, err
	}

	remaining := maxWait - c.clock.Now().Sub(start)
	if remaining <= 0 {
		return nil, &DeploymentError{Err: ErrDeploymentTimeout, DeploymentID: latest.UID, DashboardURL: dashboard}
	}

	status := c.policies.Status.WithTimeout(remaining)
	status.InitialDelay = status.Interval
	err = poll.Until(ctx, c.clock, status, func(ctx context.Context) (bool, error) {
		d, err := c.latestDeployment(ctx, projectID)
		if err != nil {
			return false, err
		}
		if d == nil {
			return false, nil
		}
		if d.State != latest.State {
			slog.Info("deployment state changed", "deployment_id", d.UID, "from", latest.State, "to", d.State)
		}
		latest = d
		done, _ := c.terminal(d, dashboard)
		return done, nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			return nil, &DeploymentError{Err: ErrDeploymentTimeout, DeploymentID: latest.UID, DashboardURL: dashboard}
		}
		return nil, err
	}

	_, err = c.terminal(latest, dashboard)
	if err != nil {
		return latest, err
	}
	return latest, nil
}

// terminal reports whether d is in a terminal state and, if so, the error
// that state maps to.
func (c *Client) terminal(d *Deployment, dashboard string) (bool, error) {
	switch strings.ToUpper(d.State) {
	case StateReady:
		return true, nil
	case StateError:
		return true, &DeploymentError{Err: ErrDeploymentFailed, DeploymentID: d.UID, DashboardURL: inspectorURL(d, dashboard)}
	case StateCanceled:
		return true, &DeploymentError{Err: ErrDeploymentCanceled, DeploymentID: d.UID, DashboardURL: dashboard}
	default:
		return false, nil
	}
}

// inspectorURL points at the build logs when the deployment URL is known.
func inspectorURL(d *Deployment, fallback string) string {
	if d.URL == "" {
		return fallback
	}
	return "https://" + d.URL + "/_logs"
}
