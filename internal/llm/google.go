package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

const (
	defaultGeminiModel  = "gemini-1.5-pro"
	geminiFallbackModel = "gemini-pro"

	// Gemini had no first-class system-role slot when this integration was
	// written, so the system prompt is seeded as the first user turn followed
	// by a synthetic model acknowledgement.
	geminiAck = "이해했습니다. 요청하신 작업을 수행하겠습니다."
)

// googleBackend abstracts the two genai call shapes so the fallback policy is
// testable without the network.
type googleBackend interface {
	// SendChat runs the seeded two-turn conversation and sends the user text.
	SendChat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)

	// GenerateSingle sends one concatenated single-turn prompt.
	GenerateSingle(ctx context.Context, model, prompt string) (string, error)
}

// GoogleAdapter calls the Gemini API through a seeded chat session, retrying
// exactly once against the fallback model when the primary model identifier
// is rejected as not found.
type GoogleAdapter struct {
	backend       googleBackend
	model         string
	fallbackModel string
}

// NewGoogleAdapter creates a Google adapter for a per-request credential.
func NewGoogleAdapter(ctx context.Context, apiKey string, config Config) (*GoogleAdapter, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
	}
	fallback := config.FallbackModel
	if fallback == "" {
		fallback = geminiFallbackModel
	}

	return &GoogleAdapter{
		backend:       &genaiBackend{cli: cli},
		model:         model,
		fallbackModel: fallback,
	}, nil
}

func (a *GoogleAdapter) Name() string {
	return ProviderGoogle
}

func (a *GoogleAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	text, err := a.backend.SendChat(ctx, a.model, systemPrompt, userPrompt)
	if err == nil {
		return text, nil
	}
	if isQuotaError(err) {
		return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	if !isModelNotFoundError(err) {
		return "", fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	// The key does not serve the primary model. One retry against the
	// fallback model, this time as a single concatenated prompt.
	combined := systemPrompt + "\n\n" + userPrompt
	text, ferr := a.backend.GenerateSingle(ctx, a.fallbackModel, combined)
	if ferr != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectionFailed, ferr)
	}
	return text, nil
}

// genaiBackend is the real backend over the official genai client.
type genaiBackend struct {
	cli *genai.Client
}

func (b *genaiBackend) SendChat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	history := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: systemPrompt}}},
		{Role: genai.RoleModel, Parts: []*genai.Part{{Text: geminiAck}}},
	}
	chat, err := b.cli.Chats.Create(ctx, model, nil, history)
	if err != nil {
		return "", err
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: userPrompt})
	if err != nil {
		return "", err
	}
	return candidateText(resp)
}

func (b *genaiBackend) GenerateSingle(ctx context.Context, model, prompt string) (string, error) {
	resp, err := b.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, nil)
	if err != nil {
		return "", err
	}
	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// isModelNotFoundError reports whether the provider rejected the model
// identifier itself, the one condition that triggers the fallback call.
func isModelNotFoundError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND" {
			return true
		}
	}
	return strings.Contains(err.Error(), "is not found")
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
