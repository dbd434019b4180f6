package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/llm"
)

func TestComplete_SendsRequest(t *testing.T) {
	var got map[string]any
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  We open at 9.  "}}]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Options{BaseURLs: map[string]string{llm.ProviderOpenRouter: srv.URL}})

	reply, err := client.Complete(context.Background(), llm.Request{
		Provider: llm.ProviderOpenRouter,
		APIKey:   "sk-test",
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are Sam."},
			{Role: llm.RoleUser, Content: "Hours?"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "We open at 9.", reply)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	assert.InDelta(t, 1000, got["max_tokens"], 1e-9)
	assert.InDelta(t, 1, got["top_p"], 1e-9)
	assert.InDelta(t, 0, got["frequency_penalty"], 1e-9)
	assert.InDelta(t, 0, got["presence_penalty"], 1e-9)
	assert.Len(t, got["messages"], 2)
}

func TestComplete_UnknownProvider(t *testing.T) {
	client := llm.NewClient(llm.Options{})

	_, err := client.Complete(context.Background(), llm.Request{Provider: "acme-ai"})

	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestComplete_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Options{BaseURLs: map[string]string{llm.ProviderOpenAI: srv.URL}})

	_, err := client.Complete(context.Background(), llm.Request{Provider: llm.ProviderOpenAI, APIKey: "bad"})
	require.Error(t, err)

	assert.ErrorIs(t, err, hostapi.ErrPermission)
	apiErr, ok := hostapi.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)
	assert.Equal(t, "check the agent's API key in the dashboard", apiErr.Hint)
}

func TestComplete_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Options{BaseURLs: map[string]string{llm.ProviderDeepSeek: srv.URL}})

	_, err := client.Complete(context.Background(), llm.Request{Provider: llm.ProviderDeepSeek, APIKey: "k"})

	assert.ErrorIs(t, err, llm.ErrEmptyReply)
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"deepseek", "openai", "openrouter"}, llm.Providers())
	assert.True(t, llm.IsProvider("openai"))
	assert.False(t, llm.IsProvider("anthropic"))
}
