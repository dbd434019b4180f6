package domain

// StepStatus is the state of a single deployment step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepLoading StepStatus = "loading"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// Step identifiers, one per orchestrator phase.
const (
	StepGenerate = "generate"
	StepUpload   = "upload"
	StepDeploy   = "deploy"
)

// DeploymentStep is per-attempt progress shown to the user. Not persisted.
type DeploymentStep struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// NewDeploymentSteps returns a fresh pending step list for a full pipeline run.
func NewDeploymentSteps() []DeploymentStep {
	return []DeploymentStep{
		{ID: StepGenerate, Title: "Generate agent site", Status: StepPending},
		{ID: StepUpload, Title: "Upload source to GitHub", Status: StepPending},
		{ID: StepDeploy, Title: "Deploy to Vercel", Status: StepPending},
	}
}

// GeneratedFile is one file of a generated site.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
