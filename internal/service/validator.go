package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/sitegen"
)

const (
	maxShortField = 100
	maxLongField  = 20000
	maxListItems  = 50
)

// subdomainPattern is a single DNS label: lowercase letters, digits and
// inner hyphens, at most 63 characters.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// reservedSubdomains are labels used by the platform itself.
var reservedSubdomains = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true, "dashboard": true,
	"mail": true, "docs": true, "status": true, "static": true, "cdn": true,
}

type fieldValue struct {
	name  string
	value string
}

// Validator checks agent configurations before any I/O happens.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// NormalizeConfig trims whitespace, lowercases the subdomain, drops empty
// list entries and fills defaults for optional presentation fields.
func NormalizeConfig(cfg domain.AgentConfig) domain.AgentConfig {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.BrandName = strings.TrimSpace(cfg.BrandName)
	cfg.WebsiteName = strings.TrimSpace(cfg.WebsiteName)
	cfg.AgentType = strings.TrimSpace(cfg.AgentType)
	cfg.RoleDescription = strings.TrimSpace(cfg.RoleDescription)
	cfg.PrimaryColor = strings.TrimSpace(cfg.PrimaryColor)
	cfg.AvatarURL = strings.TrimSpace(cfg.AvatarURL)
	cfg.Subdomain = strings.ToLower(strings.TrimSpace(cfg.Subdomain))
	cfg.OfficeHours = strings.TrimSpace(cfg.OfficeHours)
	cfg.APIProvider = strings.ToLower(strings.TrimSpace(cfg.APIProvider))
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	if cfg.AgentType == "" {
		cfg.AgentType = domain.DefaultAgentType
	}
	if cfg.Tone == "" {
		cfg.Tone = domain.ToneProfessional
	}
	if cfg.PrimaryColor == "" {
		cfg.PrimaryColor = sitegen.DefaultColor
	}

	services := make([]string, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	cfg.Services = services

	faqs := make([]domain.FAQ, 0, len(cfg.FAQs))
	for _, f := range cfg.FAQs {
		f.Question = strings.TrimSpace(f.Question)
		f.Answer = strings.TrimSpace(f.Answer)
		if f.Question == "" && f.Answer == "" {
			continue
		}
		faqs = append(faqs, f)
	}
	cfg.FAQs = faqs

	return cfg
}

// ValidateConfig checks a normalized configuration. Callers that keep a
// stored API key must fill it in before validating.
func (v *Validator) ValidateConfig(cfg domain.AgentConfig) error {
	required := []fieldValue{
		{"name", cfg.Name},
		{"brandName", cfg.BrandName},
		{"subdomain", cfg.Subdomain},
		{"apiProvider", cfg.APIProvider},
		{"model", cfg.Model},
		{"apiKey", cfg.APIKey},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, f.name)
		}
	}

	short := []fieldValue{
		{"name", cfg.Name},
		{"brandName", cfg.BrandName},
		{"websiteName", cfg.WebsiteName},
		{"model", cfg.Model},
		{"officeHours", cfg.OfficeHours},
	}
	for _, f := range short {
		if utf8.RuneCountInString(f.value) > maxShortField {
			return fmt.Errorf("%w: %s must be at most %d characters", domain.ErrValidation, f.name, maxShortField)
		}
	}
	if utf8.RuneCountInString(cfg.RoleDescription) > maxLongField || utf8.RuneCountInString(cfg.Knowledge) > maxLongField {
		return fmt.Errorf("%w: roleDescription and knowledge must be at most %d characters", domain.ErrValidation, maxLongField)
	}

	if err := v.ValidateSubdomain(cfg.Subdomain); err != nil {
		return err
	}

	if !cfg.Tone.IsValid() {
		return fmt.Errorf("%w: tone %q is not one of professional, friendly, witty, minimal", domain.ErrValidation, cfg.Tone)
	}

	if !sitegen.IsColor(cfg.PrimaryColor) {
		return fmt.Errorf("%w: primaryColor %q must be a hex color like #4f46e5", domain.ErrValidation, cfg.PrimaryColor)
	}

	if cfg.AvatarURL != "" {
		u, err := url.Parse(cfg.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: avatarUrl must be an http or https URL", domain.ErrValidation)
		}
	}

	if len(cfg.Services) > maxListItems || len(cfg.FAQs) > maxListItems {
		return fmt.Errorf("%w: at most %d services and %d FAQs are allowed", domain.ErrValidation, maxListItems, maxListItems)
	}
	for i, f := range cfg.FAQs {
		if f.Question == "" || f.Answer == "" {
			return fmt.Errorf("%w: faq %d needs both a question and an answer", domain.ErrValidation, i+1)
		}
	}

	if !llm.IsProvider(cfg.APIProvider) {
		return fmt.Errorf("%w: %q, expected one of %s", domain.ErrUnknownProvider, cfg.APIProvider, strings.Join(llm.Providers(), ", "))
	}

	return nil
}

// ValidateSubdomain checks that s can be used as an agent subdomain.
func (v *Validator) ValidateSubdomain(s string) error {
	if !subdomainPattern.MatchString(s) {
		return fmt.Errorf("%w: %q must be 1-63 lowercase letters, digits or inner hyphens", domain.ErrInvalidSubdomain, s)
	}
	if reservedSubdomains[s] {
		return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidSubdomain, s)
	}
	return nil
}
