// Package llm is a minimal client for OpenAI-compatible chat completion APIs.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/hostapi"
)

// Supported provider ids.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderDeepSeek   = "deepseek"
)

// DefaultBaseURLs maps a provider id to its API base.
var DefaultBaseURLs = map[string]string{
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderDeepSeek:   "https://api.deepseek.com/v1",
}

// Sampling parameters sent with every completion.
const (
	Temperature      = 0.7
	MaxTokens        = 1000
	TopP             = 1.0
	FrequencyPenalty = 0.0
	PresencePenalty  = 0.0
)

// ErrEmptyReply is returned when the provider answers without any choices.
var ErrEmptyReply = errors.New("provider returned no reply")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call.
type Request struct {
	Provider string
	APIKey   string
	Model    string
	Messages []Message
}

type completionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	TopP             float64   `json:"top_p"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Options configures a Client.
type Options struct {
	// BaseURLs overrides provider base URLs; unset providers use DefaultBaseURLs.
	BaseURLs   map[string]string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client sends chat completions on behalf of agents. The API key differs per
// request, so the token transport is built per call.
type Client struct {
	baseURLs   map[string]string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	baseURLs := make(map[string]string, len(DefaultBaseURLs))
	for k, v := range DefaultBaseURLs {
		baseURLs[k] = v
	}
	for k, v := range opts.BaseURLs {
		baseURLs[k] = v
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	return &Client{
		baseURLs:   baseURLs,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
	}
}

// Providers lists the supported provider ids in sorted order.
func Providers() []string {
	out := make([]string, 0, len(DefaultBaseURLs))
	for k := range DefaultBaseURLs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsProvider reports whether id is a supported provider.
func IsProvider(id string) bool {
	_, ok := DefaultBaseURLs[id]
	return ok
}

// Complete sends the conversation and returns the assistant reply.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	baseURL, ok := c.baseURLs[req.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownProvider, req.Provider)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	api := &hostapi.Client{
		Host:    req.Provider,
		BaseURL: baseURL,
		HTTPClient: oauth2.NewClient(tokenCtx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: req.APIKey,
		})),
		DecodeErr: decodeError,
		Hint:      hint,
	}

	var resp completionResponse
	err := api.Do(ctx, "chat completion", http.MethodPost, "/chat/completions", nil, completionRequest{
		Model:            req.Model,
		Messages:         req.Messages,
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// decodeError reads the OpenAI-style {"error":{"message":...}} envelope.
func decodeError(body []byte) (string, []string) {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil
	}

	var details []string
	if envelope.Error.Type != "" {
		details = append(details, envelope.Error.Type)
	}
	return envelope.Error.Message, details
}

func hint(_ string, kind hostapi.Kind) string {
	switch kind {
	case hostapi.KindPermission:
		return "check the agent's API key in the dashboard"
	case hostapi.KindNotFound:
		return "check that the configured model exists for this provider"
	default:
		return ""
	}
}
