package dto

import "github.com/mtlprog/pludo/internal/domain"

// FAQ is one question and answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AgentConfigRequest is the request body for POST /agents, POST /agents/deploy
// and PUT /agents/:id.
type AgentConfigRequest struct {
	Name            string   `json:"name"`
	BrandName       string   `json:"brandName"`
	WebsiteName     string   `json:"websiteName,omitempty"`
	AgentType       string   `json:"agentType,omitempty"`
	RoleDescription string   `json:"roleDescription,omitempty"`
	Services        []string `json:"services,omitempty"`
	FAQs            []FAQ    `json:"faqs,omitempty"`
	PrimaryColor    string   `json:"primaryColor,omitempty"`
	Tone            string   `json:"tone,omitempty"`
	AvatarURL       string   `json:"avatarUrl,omitempty"`
	Subdomain       string   `json:"subdomain"`
	OfficeHours     string   `json:"officeHours,omitempty"`
	Knowledge       string   `json:"knowledge,omitempty"`
	APIProvider     string   `json:"apiProvider"`
	Model           string   `json:"model"`
	APIKey          string   `json:"apiKey"`
}

// ToDomain converts the request into an AgentConfig.
func (r AgentConfigRequest) ToDomain() domain.AgentConfig {
	var faqs []domain.FAQ
	for _, f := range r.FAQs {
		faqs = append(faqs, domain.FAQ{Question: f.Question, Answer: f.Answer})
	}
	return domain.AgentConfig{
		Name:            r.Name,
		BrandName:       r.BrandName,
		WebsiteName:     r.WebsiteName,
		AgentType:       r.AgentType,
		RoleDescription: r.RoleDescription,
		Services:        r.Services,
		FAQs:            faqs,
		PrimaryColor:    r.PrimaryColor,
		Tone:            domain.Tone(r.Tone),
		AvatarURL:       r.AvatarURL,
		Subdomain:       r.Subdomain,
		OfficeHours:     r.OfficeHours,
		Knowledge:       r.Knowledge,
		APIProvider:     r.APIProvider,
		Model:           r.Model,
		APIKey:          r.APIKey,
	}
}

// ChatMessage is one turn of a widget conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for POST /chat/:subdomain.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}
