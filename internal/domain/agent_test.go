package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/pludo/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestAgent_Phase(t *testing.T) {
	tests := []struct {
		name  string
		repo  *string
		live  *string
		phase domain.Phase
	}{
		{"fresh", nil, nil, domain.PhaseGenerated},
		{"empty repo url", strPtr(""), nil, domain.PhaseGenerated},
		{"uploaded", strPtr("https://github.com/pludo/pludo-acme"), nil, domain.PhaseUploaded},
		{"deployed", strPtr("https://github.com/pludo/pludo-acme"), strPtr("https://acme.pludo.ai"), domain.PhaseDeployed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &domain.Agent{RepositoryURL: tt.repo, LiveURL: tt.live}
			assert.Equal(t, tt.phase, a.Phase())
		})
	}
}

func TestAgent_RepositoryFullName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/pludo/pludo-acme":     "pludo/pludo-acme",
		"https://github.com/pludo/pludo-acme/":    "pludo/pludo-acme",
		"https://github.com/pludo/pludo-acme.git": "pludo/pludo-acme",
		"https://github.com/acme-org/pludo-shop":  "acme-org/pludo-shop",
		"pludo-acme":                              "",
		"":                                        "",
	}
	for url, want := range tests {
		a := &domain.Agent{RepositoryURL: strPtr(url)}
		assert.Equal(t, want, a.RepositoryFullName(), url)
	}

	assert.Empty(t, (&domain.Agent{}).RepositoryFullName())
}

func TestAgent_IsOwnedBy(t *testing.T) {
	a := &domain.Agent{UserID: "user-1"}
	assert.True(t, a.IsOwnedBy("user-1"))
	assert.False(t, a.IsOwnedBy("user-2"))
}

func TestTone_IsValid(t *testing.T) {
	for _, tone := range []domain.Tone{domain.ToneProfessional, domain.ToneFriendly, domain.ToneWitty, domain.ToneMinimal} {
		assert.True(t, tone.IsValid(), tone)
	}
	assert.False(t, domain.Tone("sarcastic").IsValid())
	assert.False(t, domain.Tone("").IsValid())
}

func TestNewDeploymentSteps(t *testing.T) {
	steps := domain.NewDeploymentSteps()
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID)
		assert.Equal(t, domain.StepPending, s.Status)
	}
	assert.Equal(t, []string{domain.StepGenerate, domain.StepUpload, domain.StepDeploy}, ids)
}
