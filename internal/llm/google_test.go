package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	genai "google.golang.org/genai"
)

// fakeBackend scripts the two genai call shapes.
type fakeBackend struct {
	chatResponse   string
	chatErr        error
	singleResponse string
	singleErr      error

	chatCalls   []string // models passed to SendChat
	singleCalls []struct{ model, prompt string }
}

func (f *fakeBackend) SendChat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	f.chatCalls = append(f.chatCalls, model)
	return f.chatResponse, f.chatErr
}

func (f *fakeBackend) GenerateSingle(ctx context.Context, model, prompt string) (string, error) {
	f.singleCalls = append(f.singleCalls, struct{ model, prompt string }{model, prompt})
	return f.singleResponse, f.singleErr
}

func newTestGoogleAdapter(backend *fakeBackend) *GoogleAdapter {
	return &GoogleAdapter{
		backend:       backend,
		model:         defaultGeminiModel,
		fallbackModel: geminiFallbackModel,
	}
}

func TestGoogleGeneratePrimarySuccess(t *testing.T) {
	backend := &fakeBackend{chatResponse: "answer"}
	adapter := newTestGoogleAdapter(backend)

	got, err := adapter.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "answer" {
		t.Errorf("output = %q, want answer", got)
	}
	if len(backend.singleCalls) != 0 {
		t.Error("fallback must not run when the primary call succeeds")
	}
}

func TestGoogleGenerateFallbackOnModelNotFound(t *testing.T) {
	backend := &fakeBackend{
		chatErr:        genai.APIError{Code: http.StatusNotFound, Status: "NOT_FOUND", Message: "model is not found"},
		singleResponse: "fallback answer",
	}
	adapter := newTestGoogleAdapter(backend)

	got, err := adapter.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "fallback answer" {
		t.Errorf("output = %q, want the fallback response", got)
	}
	if len(backend.singleCalls) != 1 {
		t.Fatalf("fallback ran %d times, want exactly 1", len(backend.singleCalls))
	}
	if backend.singleCalls[0].model != geminiFallbackModel {
		t.Errorf("fallback model = %q, want %q", backend.singleCalls[0].model, geminiFallbackModel)
	}
	if backend.singleCalls[0].prompt != "system\n\nuser" {
		t.Errorf("fallback prompt = %q, want system and user concatenated", backend.singleCalls[0].prompt)
	}
}

func TestGoogleGenerateFallbackAlsoFails(t *testing.T) {
	backend := &fakeBackend{
		chatErr:   genai.APIError{Code: http.StatusNotFound, Status: "NOT_FOUND", Message: "model is not found"},
		singleErr: errors.New("network down"),
	}
	adapter := newTestGoogleAdapter(backend)

	_, err := adapter.Generate(context.Background(), "system", "user")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("error = %v, want ErrConnectionFailed", err)
	}
	if len(backend.singleCalls) != 1 {
		t.Errorf("fallback ran %d times, want exactly 1", len(backend.singleCalls))
	}
}

func TestGoogleGenerateQuotaNoFallback(t *testing.T) {
	backend := &fakeBackend{
		chatErr: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"},
	}
	adapter := newTestGoogleAdapter(backend)

	_, err := adapter.Generate(context.Background(), "system", "user")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if len(backend.singleCalls) != 0 {
		t.Error("quota exhaustion must not trigger the fallback model")
	}
}

func TestGoogleGenerateOtherErrorNoFallback(t *testing.T) {
	backend := &fakeBackend{
		chatErr: genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED", Message: "bad key"},
	}
	adapter := newTestGoogleAdapter(backend)

	_, err := adapter.Generate(context.Background(), "system", "user")
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("error = %v, want ErrProviderFailure", err)
	}
	if len(backend.singleCalls) != 0 {
		t.Error("only a not-found model may trigger the fallback")
	}
}

func TestIsModelNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"404 code", genai.APIError{Code: http.StatusNotFound}, true},
		{"not found status", genai.APIError{Status: "NOT_FOUND"}, true},
		{"message text", errors.New("models/gemini-1.5-pro is not found for API version v1"), true},
		{"unauthorized", genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"}, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isModelNotFoundError(tt.err); got != tt.want {
				t.Errorf("isModelNotFoundError() = %v, want %v", got, tt.want)
			}
		})
	}
}
