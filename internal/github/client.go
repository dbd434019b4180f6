// Package github is a client for the GitHub REST API limited to what the
// upload phase needs: repository lifecycle and low-level git object creation.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/poll"
)

const (
	// DefaultBaseURL is the public GitHub API.
	DefaultBaseURL = "https://api.github.com"

	// DefaultMaxBlobSize is the largest file content accepted by the blob API.
	DefaultMaxBlobSize = 100 << 20

	// DefaultSettleDelay gives the host time to finish auto-initialising a
	// freshly created repository.
	DefaultSettleDelay = 2 * time.Second

	// DefaultBlobSpacing keeps blob creation under the secondary rate limit.
	DefaultBlobSpacing = 100 * time.Millisecond

	apiVersion = "2022-11-28"
)

// branchCandidates are tried in order when resolving the tip commit.
var branchCandidates = []string{"main", "master"}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	// Org creates repositories under an organization instead of the token's user.
	Org string
	// HTTPClient is the base client the token transport wraps.
	HTTPClient  *http.Client
	Clock       poll.Clock
	SettleDelay time.Duration
	BlobSpacing time.Duration
	MaxBlobSize int
}

// Client talks to the GitHub REST API.
type Client struct {
	api         *hostapi.Client
	org         string
	clock       poll.Clock
	settleDelay time.Duration
	maxBlobSize int
	limiter     *rate.Limiter
}

// NewClient creates a new Client authenticated with a personal access token.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Clock == nil {
		opts.Clock = poll.Real()
	}
	if opts.MaxBlobSize <= 0 {
		opts.MaxBlobSize = DefaultMaxBlobSize
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	// TokenType "token" yields the "Authorization: token <PAT>" scheme.
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.Token,
		TokenType:   "token",
	}))
	httpClient.Timeout = 30 * time.Second

	limit := rate.Inf
	if opts.BlobSpacing > 0 {
		limit = rate.Every(opts.BlobSpacing)
	}

	return &Client{
		api: &hostapi.Client{
			Host:       "github",
			BaseURL:    opts.BaseURL,
			HTTPClient: httpClient,
			Hint:       hint,
			DecodeErr:  decodeError,
			Header: http.Header{
				"Accept":               {"application/vnd.github+json"},
				"X-Github-Api-Version": {apiVersion},
			},
		},
		org:         opts.Org,
		clock:       opts.Clock,
		settleDelay: opts.SettleDelay,
		maxBlobSize: opts.MaxBlobSize,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

func repoPath(fullName string) (string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepoName, fullName)
	}
	return "/repos/" + fullName, nil
}

// CreateRepository creates a private repository initialised with a README so
// that a default branch exists to build commits on.
func (c *Client) CreateRepository(ctx context.Context, name, description string) (*Repository, error) {
	path := "/user/repos"
	if c.org != "" {
		path = "/orgs/" + c.org + "/repos"
	}

	req := createRepoRequest{
		Name:        SanitizeRepoName(name),
		Description: description,
		Private:     true,
		AutoInit:    true,
	}

	var repo Repository
	if err := c.api.Do(ctx, "create repository", http.MethodPost, path, nil, req, &repo); err != nil {
		return nil, err
	}

	slog.Info("github repository created", "repo", repo.FullName)
	return &repo, nil
}

// GetRepository fetches an existing repository by "owner/name".
func (c *Client) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	path, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}

	var repo Repository
	if err := c.api.Do(ctx, "get repository", http.MethodGet, path, nil, nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// owner returns the account new repositories are created under.
func (c *Client) owner(ctx context.Context) (string, error) {
	if c.org != "" {
		return c.org, nil
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := c.api.Do(ctx, "get user", http.MethodGet, "/user", nil, nil, &user); err != nil {
		return "", err
	}
	return user.Login, nil
}

// EnsureRepository returns the repository called name under the configured
// owner, creating it if it does not exist yet. A create that succeeded before
// a failed upload is picked up again on retry.
func (c *Client) EnsureRepository(ctx context.Context, name, description string) (*Repository, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := c.GetRepository(ctx, owner+"/"+SanitizeRepoName(name))
	if err == nil {
		slog.Info("github repository reused", "repo", repo.FullName)
		return repo, nil
	}
	if !errors.Is(err, hostapi.ErrNotFound) {
		return nil, err
	}

	return c.CreateRepository(ctx, name, description)
}

// DeleteRepository deletes a repository by "owner/name".
func (c *Client) DeleteRepository(ctx context.Context, fullName string) error {
	path, err := repoPath(fullName)
	if err != nil {
		return err
	}

	if err := c.api.Do(ctx, "delete repository", http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	slog.Info("github repository deleted", "repo", fullName)
	return nil
}

// UploadFiles commits files on top of the current tip of main (or master)
// and fast-forwards the branch. The branch ref is only written after every
// blob, the tree and the commit exist, so a failure at any step leaves the
// branch on its previous commit. Blobs created before a failure are left as
// unreferenced objects.
func (c *Client) UploadFiles(ctx context.Context, fullName string, files []domain.GeneratedFile, message string) (string, error) {
	base, err := repoPath(fullName)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("upload to %s: no files", fullName)
	}
	for _, f := range files {
		if len(f.Content) > c.maxBlobSize {
			return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Path, len(f.Content), c.maxBlobSize)
		}
	}

	if err := c.clock.Sleep(ctx, c.settleDelay); err != nil {
		return "", err
	}

	branch, tipSHA, err := c.resolveTip(ctx, base)
	if err != nil {
		return "", err
	}

	var tip commitResponse
	if err := c.api.Do(ctx, "get commit", http.MethodGet, base+"/git/commits/"+tipSHA, nil, nil, &tip); err != nil {
		return "", err
	}

	entries := make([]treeEntry, 0, len(files))
	for _, f := range files {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for blob slot: %w", err)
		}

		var blob gitObject
		req := createBlobRequest{
			Content:  base64.StdEncoding.EncodeToString([]byte(f.Content)),
			Encoding: "base64",
		}
		if err := c.api.Do(ctx, "create blob", http.MethodPost, base+"/git/blobs", nil, req, &blob); err != nil {
			return "", fmt.Errorf("upload %s: %w", f.Path, err)
		}

		entries = append(entries, treeEntry{Path: f.Path, Mode: "100644", Type: "blob", SHA: blob.SHA})
	}

	var tree gitObject
	treeReq := createTreeRequest{BaseTree: tip.Tree.SHA, Tree: entries}
	if err := c.api.Do(ctx, "create tree", http.MethodPost, base+"/git/trees", nil, treeReq, &tree); err != nil {
		return "", err
	}

	var commit gitObject
	commitReq := createCommitRequest{Message: message, Tree: tree.SHA, Parents: []string{tipSHA}}
	if err := c.api.Do(ctx, "create commit", http.MethodPost, base+"/git/commits", nil, commitReq, &commit); err != nil {
		return "", err
	}

	refReq := updateRefRequest{SHA: commit.SHA, Force: false}
	if err := c.api.Do(ctx, "update ref", http.MethodPatch, base+"/git/refs/heads/"+branch, nil, refReq, nil); err != nil {
		return "", err
	}

	slog.Info("files uploaded",
		"repo", fullName,
		"branch", branch,
		"files", len(files),
		"commit", commit.SHA,
	)

	return commit.SHA, nil
}

// resolveTip returns the first existing branch from branchCandidates and
// the SHA it points to.
func (c *Client) resolveTip(ctx context.Context, base string) (string, string, error) {
	for _, branch := range branchCandidates {
		var ref refResponse
		err := c.api.Do(ctx, "get ref", http.MethodGet, base+"/git/ref/heads/"+branch, nil, nil, &ref)
		if err == nil {
			return branch, ref.Object.SHA, nil
		}
		// An empty repository answers 409 instead of 404.
		if errors.Is(err, hostapi.ErrNotFound) || errors.Is(err, hostapi.ErrConflict) {
			slog.Debug("branch not found", "branch", branch)
			continue
		}
		return "", "", err
	}
	return "", "", ErrNoBranch
}
