package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4"
)

// OpenAIAdapter calls the OpenAI chat-completions API: one request carrying
// the system instruction and the user message, one text completion back.
type OpenAIAdapter struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewOpenAIAdapter creates an OpenAI adapter for a per-request credential.
func NewOpenAIAdapter(apiKey string, config Config) *OpenAIAdapter {
	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAdapter{
		apiKey:      apiKey,
		baseURL:     defaultOpenAIBaseURL,
		model:       model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		client:      &http.Client{Timeout: config.Timeout},
	}
}

func (a *OpenAIAdapter) Name() string {
	return ProviderOpenAI
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (a *OpenAIAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: a.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if isOpenAIQuotaResponse(resp.StatusCode, body) {
			return "", fmt.Errorf("%w: status %d: %s", ErrQuotaExceeded, resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrProviderFailure, resp.StatusCode, string(body))
	}

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrProviderFailure, err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from API", ErrProviderFailure)
	}

	return apiResp.Choices[0].Message.Content, nil
}

// isOpenAIQuotaResponse classifies quota exhaustion structurally (429 or the
// documented insufficient_quota code) rather than leaving callers to sniff
// message text.
func isOpenAIQuotaResponse(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil || apiResp.Error == nil {
		return false
	}
	return apiResp.Error.Code == "insufficient_quota" ||
		strings.Contains(apiResp.Error.Type, "quota")
}
