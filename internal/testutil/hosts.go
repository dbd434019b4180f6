package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/vercel"
)

// Upload is one recorded UploadFiles call.
type Upload struct {
	FullName string
	Files    []domain.GeneratedFile
	Message  string
}

// FakeSourceHost records repository operations in memory. Setting an error
// field makes the matching operation fail with it.
type FakeSourceHost struct {
	Owner string

	EnsureErr error
	UploadErr error
	DeleteErr error

	mu      sync.Mutex
	repos   map[string]int64
	uploads []Upload
	deleted []string
	creates int
}

// NewFakeSourceHost creates a FakeSourceHost owned by "pludo".
func NewFakeSourceHost() *FakeSourceHost {
	return &FakeSourceHost{Owner: "pludo", repos: map[string]int64{}}
}

// EnsureRepository implements service.SourceHost.
func (h *FakeSourceHost) EnsureRepository(_ context.Context, name, _ string) (*github.Repository, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.EnsureErr != nil {
		return nil, h.EnsureErr
	}
	fullName := h.Owner + "/" + github.SanitizeRepoName(name)
	id, ok := h.repos[fullName]
	if !ok {
		h.creates++
		id = int64(1000 + h.creates)
		h.repos[fullName] = id
	}
	return &github.Repository{
		ID:            id,
		FullName:      fullName,
		HTMLURL:       "https://github.com/" + fullName,
		DefaultBranch: "main",
		Private:       true,
	}, nil
}

// UploadFiles implements service.SourceHost.
func (h *FakeSourceHost) UploadFiles(_ context.Context, fullName string, files []domain.GeneratedFile, message string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.UploadErr != nil {
		return "", h.UploadErr
	}
	h.uploads = append(h.uploads, Upload{
		FullName: fullName,
		Files:    append([]domain.GeneratedFile(nil), files...),
		Message:  message,
	})
	return fmt.Sprintf("commit-%d", len(h.uploads)), nil
}

// DeleteRepository implements service.SourceHost.
func (h *FakeSourceHost) DeleteRepository(_ context.Context, fullName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.deleted = append(h.deleted, fullName)
	if h.DeleteErr != nil {
		return h.DeleteErr
	}
	delete(h.repos, fullName)
	return nil
}

// Uploads returns the recorded uploads.
func (h *FakeSourceHost) Uploads() []Upload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Upload(nil), h.uploads...)
}

// Deleted returns the repositories DeleteRepository was called with.
func (h *FakeSourceHost) Deleted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

// RepositoryID returns the id of an existing repository, or 0.
func (h *FakeSourceHost) RepositoryID(fullName string) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.repos[fullName]
}

// Creates returns how many repositories were created.
func (h *FakeSourceHost) Creates() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creates
}

// FakeBuildHost keeps projects in memory and reports every deployment in
// State. WaitErr, when set, is returned by WaitForDeployment instead.
type FakeBuildHost struct {
	State     string
	WaitErr   error
	DomainErr error
	CreateErr error

	mu       sync.Mutex
	projects map[string]*vercel.Project
	domains  map[string][]string
	creates  int
	waits    []time.Duration
}

// NewFakeBuildHost creates a FakeBuildHost whose deployments are READY.
func NewFakeBuildHost() *FakeBuildHost {
	return &FakeBuildHost{
		State:    vercel.StateReady,
		projects: map[string]*vercel.Project{},
		domains:  map[string][]string{},
	}
}

func notFound(op string) error {
	return &hostapi.APIError{Host: "vercel", Op: op, StatusCode: http.StatusNotFound, Message: "not found"}
}

// GetProject implements service.BuildHost.
func (h *FakeBuildHost) GetProject(_ context.Context, idOrName string) (*vercel.Project, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.projects {
		if p.ID == idOrName || p.Name == idOrName {
			c := *p
			return &c, nil
		}
	}
	return nil, notFound("get project")
}

// CreateProject implements service.BuildHost.
func (h *FakeBuildHost) CreateProject(_ context.Context, name, gitRepo string) (*vercel.Project, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.CreateErr != nil {
		return nil, h.CreateErr
	}
	p := &vercel.Project{
		ID:   "prj_" + uuid.NewString()[:8],
		Name: name,
		Link: &vercel.ProjectLink{Type: "github", Repo: gitRepo, RepoID: 1},
	}
	h.projects[p.ID] = p
	h.creates++
	c := *p
	return &c, nil
}

// AddDomain implements service.BuildHost.
func (h *FakeBuildHost) AddDomain(_ context.Context, projectID, domainName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.DomainErr != nil {
		return h.DomainErr
	}
	h.domains[projectID] = append(h.domains[projectID], domainName)
	return nil
}

// WaitForDeployment implements service.BuildHost.
func (h *FakeBuildHost) WaitForDeployment(_ context.Context, project *vercel.Project, maxWait time.Duration) (*vercel.Deployment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.waits = append(h.waits, maxWait)
	if h.WaitErr != nil {
		return nil, h.WaitErr
	}
	p, ok := h.projects[project.ID]
	if !ok {
		return nil, vercel.ErrNoDeployment
	}
	d := &vercel.Deployment{UID: "dpl_" + p.Name, Name: p.Name, URL: p.Name + "-abc.vercel.app", State: h.State}
	if h.State != vercel.StateReady {
		return nil, &vercel.DeploymentError{Err: vercel.ErrDeploymentFailed, DeploymentID: d.UID}
	}
	return d, nil
}

// Creates returns how many projects were created.
func (h *FakeBuildHost) Creates() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creates
}

// Domains returns the domains attached to a project.
func (h *FakeBuildHost) Domains(projectID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.domains[projectID]...)
}

// FakeCompleter returns Reply and records the last request.
type FakeCompleter struct {
	Reply string
	Err   error

	mu   sync.Mutex
	last *llm.Request
}

// Complete implements service.Completer.
func (c *FakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &req
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

// Last returns the most recent request, or nil.
func (c *FakeCompleter) Last() *llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
