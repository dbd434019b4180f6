package dto

import (
	"time"

	"github.com/mtlprog/pludo/internal/domain"
)

// AgentResponse is an agent record as shown to its owner. The provider API
// key is never included; HasAPIKey reports whether one is stored.
type AgentResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BrandName       string    `json:"brandName"`
	WebsiteName     string    `json:"websiteName,omitempty"`
	AgentType       string    `json:"agentType"`
	RoleDescription string    `json:"roleDescription,omitempty"`
	Services        []string  `json:"services"`
	FAQs            []FAQ     `json:"faqs"`
	PrimaryColor    string    `json:"primaryColor"`
	Tone            string    `json:"tone"`
	AvatarURL       string    `json:"avatarUrl,omitempty"`
	Subdomain       string    `json:"subdomain"`
	OfficeHours     string    `json:"officeHours,omitempty"`
	Knowledge       string    `json:"knowledge,omitempty"`
	APIProvider     string    `json:"apiProvider"`
	Model           string    `json:"model"`
	HasAPIKey       bool      `json:"hasApiKey"`
	Phase           string    `json:"phase"`
	RepositoryURL   *string   `json:"repositoryUrl"`
	LiveURL         *string   `json:"liveUrl"`
	EmbedSnippet    string    `json:"embedSnippet,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewAgentResponse converts an agent record. embedSnippet is only shown once
// the agent is deployed.
func NewAgentResponse(a *domain.Agent, embedSnippet string) AgentResponse {
	services := a.Services
	if services == nil {
		services = []string{}
	}
	faqs := make([]FAQ, 0, len(a.FAQs))
	for _, f := range a.FAQs {
		faqs = append(faqs, FAQ{Question: f.Question, Answer: f.Answer})
	}

	resp := AgentResponse{
		ID:              a.ID,
		Name:            a.Name,
		BrandName:       a.BrandName,
		WebsiteName:     a.WebsiteName,
		AgentType:       a.AgentType,
		RoleDescription: a.RoleDescription,
		Services:        services,
		FAQs:            faqs,
		PrimaryColor:    a.PrimaryColor,
		Tone:            string(a.Tone),
		AvatarURL:       a.AvatarURL,
		Subdomain:       a.Subdomain,
		OfficeHours:     a.OfficeHours,
		Knowledge:       a.Knowledge,
		APIProvider:     a.APIProvider,
		Model:           a.Model,
		HasAPIKey:       a.APIKey != "",
		Phase:           string(a.Phase()),
		RepositoryURL:   a.RepositoryURL,
		LiveURL:         a.LiveURL,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.Phase() == domain.PhaseDeployed {
		resp.EmbedSnippet = embedSnippet
	}
	return resp
}

// AgentsListResponse represents the response for GET /agents.
type AgentsListResponse struct {
	Agents []AgentResponse `json:"agents"`
	Total  int             `json:"total"`
}

// FilesResponse represents the response for GET /agents/:id/files.
type FilesResponse struct {
	Files []domain.GeneratedFile `json:"files"`
}

// StepsResponse represents the response for GET /agents/:id/steps.
type StepsResponse struct {
	Steps []domain.DeploymentStep `json:"steps"`
}

// SubdomainResponse represents the response for GET /subdomains/:subdomain.
type SubdomainResponse struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// PhaseResponse is the outcome of a pipeline phase or a full pipeline run.
// On failure Success is false and Error carries the message; fields filled
// by phases that did complete are still present.
type PhaseResponse struct {
	Success       bool                    `json:"success"`
	Error         string                  `json:"error,omitempty"`
	Code          string                  `json:"code,omitempty"`
	Phase         string                  `json:"phase,omitempty"`
	AgentID       string                  `json:"agentId,omitempty"`
	Agent         *AgentResponse          `json:"agent,omitempty"`
	FileCount     int                     `json:"fileCount,omitempty"`
	RepositoryURL string                  `json:"repositoryUrl,omitempty"`
	CommitSHA     string                  `json:"commitSha,omitempty"`
	LiveURL       string                  `json:"liveUrl,omitempty"`
	DeploymentURL string                  `json:"deploymentUrl,omitempty"`
	EmbedSnippet  string                  `json:"embedSnippet,omitempty"`
	Steps         []domain.DeploymentStep `json:"steps,omitempty"`
}

// ChatResponse represents the response for POST /chat/:subdomain.
type ChatResponse struct {
	Reply string `json:"reply"`
}
