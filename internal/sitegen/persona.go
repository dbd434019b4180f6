package sitegen

import (
	"fmt"
	"strings"

	"github.com/mtlprog/pludo/internal/domain"
)

var toneGuidance = map[domain.Tone]string{
	domain.ToneProfessional: "Be courteous, precise and professional. Avoid slang.",
	domain.ToneFriendly:     "Be warm, upbeat and approachable. Keep answers conversational.",
	domain.ToneWitty:        "Be clever and playful while staying helpful. A light joke is welcome when it fits.",
	domain.ToneMinimal:      "Be brief. Answer in as few words as possible without losing accuracy.",
}

// DisplayName is the name shown for the site: the website name when set,
// otherwise the brand name.
func DisplayName(cfg domain.AgentConfig) string {
	if cfg.WebsiteName != "" {
		return cfg.WebsiteName
	}
	return cfg.BrandName
}

// Greeting is the first assistant message shown in the widget.
func Greeting(cfg domain.AgentConfig) string {
	switch cfg.Tone {
	case domain.ToneFriendly:
		return fmt.Sprintf("Hi there! I'm %s from %s. What can I do for you today?", cfg.Name, cfg.BrandName)
	case domain.ToneWitty:
		return fmt.Sprintf("Hey! I'm %s, %s's resident know-it-all. Go on, ask me anything.", cfg.Name, cfg.BrandName)
	case domain.ToneMinimal:
		return "Hi. How can I help?"
	default:
		return fmt.Sprintf("Hello, I'm %s from %s. How can I help you today?", cfg.Name, cfg.BrandName)
	}
}

// KnowledgeText renders the agent's FAQs, services, office hours and
// free-text knowledge as the plain-text knowledge file.
func KnowledgeText(cfg domain.AgentConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s knowledge base\n", cfg.BrandName)

	if len(cfg.FAQs) > 0 {
		b.WriteString("\nFrequently asked questions:\n")
		for _, faq := range cfg.FAQs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", faq.Question, faq.Answer)
		}
	}

	if len(cfg.Services) > 0 {
		b.WriteString("\nServices:\n")
		for _, s := range cfg.Services {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	if cfg.OfficeHours != "" {
		fmt.Fprintf(&b, "\nOffice hours: %s\n", cfg.OfficeHours)
	}

	if k := strings.TrimSpace(cfg.Knowledge); k != "" {
		fmt.Fprintf(&b, "\nAdditional information:\n%s\n", k)
	}

	return b.String()
}

// SystemPrompt builds the system-role message sent with every chat request.
func SystemPrompt(cfg domain.AgentConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a customer support assistant for %s", cfg.Name, cfg.BrandName)
	if cfg.WebsiteName != "" && cfg.WebsiteName != cfg.BrandName {
		fmt.Fprintf(&b, " (%s)", cfg.WebsiteName)
	}
	b.WriteString(".\n")

	if cfg.RoleDescription != "" {
		fmt.Fprintf(&b, "Your role: %s\n", cfg.RoleDescription)
	}

	guidance, ok := toneGuidance[cfg.Tone]
	if !ok {
		guidance = toneGuidance[domain.ToneProfessional]
	}
	fmt.Fprintf(&b, "Tone: %s\n\n", guidance)

	b.WriteString("Answer using the knowledge below. If the answer is not covered, say you are not sure and ")
	fmt.Fprintf(&b, "suggest contacting %s directly. Never invent prices, policies or contact details.\n\n", cfg.BrandName)
	b.WriteString(KnowledgeText(cfg))

	return b.String()
}
