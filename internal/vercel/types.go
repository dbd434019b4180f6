package vercel

// Deployment states reported by the host.
const (
	StateQueued       = "QUEUED"
	StateInitializing = "INITIALIZING"
	StateBuilding     = "BUILDING"
	StateReady        = "READY"
	StateError        = "ERROR"
	StateCanceled     = "CANCELED"
)

// ProjectLink describes the git repository a project is connected to.
type ProjectLink struct {
	Type   string `json:"type"`
	Repo   string `json:"repo"`
	RepoID int64  `json:"repoId"`
}

// Project is the subset of the project resource PLUDO uses.
type Project struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Link *ProjectLink `json:"link,omitempty"`
}

// Linked reports whether the host has confirmed the repository connection.
func (p *Project) Linked() bool {
	return p.Link != nil && p.Link.RepoID != 0
}

// Deployment is one build of a project.
type Deployment struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created"`
}

// LiveURL returns the deployment's own https URL.
func (d *Deployment) LiveURL() string {
	if d.URL == "" {
		return ""
	}
	return "https://" + d.URL
}

type gitRepository struct {
	Type string `json:"type"`
	Repo string `json:"repo"`
}

type createProjectRequest struct {
	Name            string        `json:"name"`
	GitRepository   gitRepository `json:"gitRepository"`
	BuildCommand    string        `json:"buildCommand"`
	DevCommand      string        `json:"devCommand"`
	InstallCommand  string        `json:"installCommand"`
	OutputDirectory string        `json:"outputDirectory"`
	Framework       string        `json:"framework"`
}

type addDomainRequest struct {
	Name string `json:"name"`
}

type listDeploymentsResponse struct {
	Deployments []Deployment `json:"deployments"`
}
