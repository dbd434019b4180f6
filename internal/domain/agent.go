package domain

import (
	"strings"
	"time"
)

// Tone is the conversational register of a generated agent.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneWitty        Tone = "witty"
	ToneMinimal      Tone = "minimal"
)

// IsValid checks if the tone is one of the allowed values.
func (t Tone) IsValid() bool {
	switch t {
	case ToneProfessional, ToneFriendly, ToneWitty, ToneMinimal:
		return true
	default:
		return false
	}
}

// DefaultAgentType is used when the form does not specify one.
const DefaultAgentType = "customer_support"

// FAQ is a single question/answer pair shown to the agent as knowledge.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AgentConfig is the complete description of one persona as entered by the user.
type AgentConfig struct {
	Name            string
	BrandName       string
	WebsiteName     string
	AgentType       string
	RoleDescription string
	Services        []string
	FAQs            []FAQ
	PrimaryColor    string
	Tone            Tone
	AvatarURL       string
	Subdomain       string
	OfficeHours     string
	Knowledge       string
	APIProvider     string
	Model           string
	APIKey          string
}

// Phase is the deployment phase an agent record has reached.
type Phase string

const (
	PhaseGenerated Phase = "generated"
	PhaseUploaded  Phase = "uploaded"
	PhaseDeployed  Phase = "deployed"
)

// Agent is the persisted agent record.
type Agent struct {
	ID     string
	UserID string
	AgentConfig
	RepositoryURL *string // github_repo
	LiveURL       *string // vercel_url
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Phase derives the deployment phase from the populated result fields.
func (a *Agent) Phase() Phase {
	switch {
	case a.LiveURL != nil && *a.LiveURL != "":
		return PhaseDeployed
	case a.RepositoryURL != nil && *a.RepositoryURL != "":
		return PhaseUploaded
	default:
		return PhaseGenerated
	}
}

// IsOwnedBy checks if the agent belongs to the given user.
func (a *Agent) IsOwnedBy(userID string) bool {
	return a.UserID == userID
}

// RepositoryFullName returns "owner/name" parsed from the stored repository URL.
// Returns "" if no repository has been recorded.
func (a *Agent) RepositoryFullName() string {
	if a.RepositoryURL == nil {
		return ""
	}
	u := strings.TrimSuffix(*a.RepositoryURL, ".git")
	u = strings.TrimSuffix(u, "/")
	parts := strings.Split(u, "/")
	if len(parts) < 2 {
		return ""
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return ""
	}
	return owner + "/" + name
}
