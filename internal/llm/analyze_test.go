package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prdmaker/prdmaker/internal/core"
)

// stubAdapter records calls and replays canned responses.
type stubAdapter struct {
	name     string
	response string
	err      error
	calls    []struct{ system, user string }
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls = append(s.calls, struct{ system, user string }{systemPrompt, userPrompt})
	return s.response, s.err
}

func newStubAnalyzer(adapter Adapter, adapterErr error) (*Analyzer, *int) {
	a := NewAnalyzer(DefaultConfig())
	constructions := 0
	a.newAdapter = func(ctx context.Context, provider, apiKey string, config Config) (Adapter, error) {
		constructions++
		if adapterErr != nil {
			return nil, adapterErr
		}
		return adapter, nil
	}
	return a, &constructions
}

func TestAnalyzeUnsupportedProvider(t *testing.T) {
	// The stub would record any Generate call; an unknown tag must fail
	// before one happens.
	stub := &stubAdapter{name: "never"}
	a := NewAnalyzer(DefaultConfig())
	a.newAdapter = func(ctx context.Context, provider, apiKey string, config Config) (Adapter, error) {
		if _, err := NewAdapter(ctx, provider, apiKey, config); err != nil {
			return nil, err
		}
		return stub, nil
	}

	_, err := a.Analyze(context.Background(), Request{
		APIKey:       "key",
		Provider:     "anthropic",
		Text:         "PRD text",
		ArtifactType: core.ArtifactPRDAnalysis,
	})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("error = %v, want ErrUnsupportedProvider", err)
	}
	if !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("error should name the rejected tag, got %q", err.Error())
	}
	if len(stub.calls) != 0 {
		t.Errorf("adapter was invoked %d times, want none", len(stub.calls))
	}
}

func TestAnalyzeResolvesPromptAndPassesThrough(t *testing.T) {
	stub := &stubAdapter{name: "openai", response: "raw completion"}
	a, _ := newStubAnalyzer(stub, nil)

	got, err := a.Analyze(context.Background(), Request{
		APIKey:       "key",
		Provider:     ProviderOpenAI,
		Text:         "PRD text",
		ArtifactType: core.ArtifactTaskTable,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "raw completion" {
		t.Errorf("output = %q, must pass through unchanged", got)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("adapter called %d times, want 1", len(stub.calls))
	}
	if stub.calls[0].system != core.TaskTablePrompt {
		t.Error("system prompt was not the task table template")
	}
	if stub.calls[0].user != "PRD text" {
		t.Errorf("user prompt = %q, want the raw text", stub.calls[0].user)
	}
}

func TestAnalyzeUnknownTypeUsesAnalysisPrompt(t *testing.T) {
	stub := &stubAdapter{name: "openai", response: "[]"}
	a, _ := newStubAnalyzer(stub, nil)

	if _, err := a.Analyze(context.Background(), Request{
		APIKey:       "key",
		Provider:     ProviderOpenAI,
		Text:         "text",
		ArtifactType: "nonsense",
	}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if stub.calls[0].system != core.PRDAnalysisPrompt {
		t.Error("unknown artifact type must fall back to the PRD analysis prompt")
	}
}

func TestGenerateAllFeedsAnalysisOutputForward(t *testing.T) {
	stub := &stubAdapter{name: "openai", response: `[{"name":"Login"}]`}
	a, _ := newStubAnalyzer(stub, nil)

	results := a.GenerateAll(context.Background(), "key", ProviderOpenAI, "PRD source")

	if len(results) != len(core.ArtifactTypes) {
		t.Fatalf("got %d results, want %d", len(results), len(core.ArtifactTypes))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("stage %s failed: %v", res.Type, res.Err)
		}
	}

	if stub.calls[0].user != "PRD source" {
		t.Error("first stage must receive the original source text")
	}
	for i := 1; i < len(stub.calls); i++ {
		if stub.calls[i].user != `[{"name":"Login"}]` {
			t.Errorf("stage %d input = %q, want the analysis output", i, stub.calls[i].user)
		}
	}
}

func TestGenerateAllSkipsRemainingOnAnalysisFailure(t *testing.T) {
	stub := &stubAdapter{name: "openai", err: fmt.Errorf("%w: boom", ErrProviderFailure)}
	a, _ := newStubAnalyzer(stub, nil)

	results := a.GenerateAll(context.Background(), "key", ProviderOpenAI, "PRD source")

	if len(results) != len(core.ArtifactTypes) {
		t.Fatalf("got %d results, want %d", len(results), len(core.ArtifactTypes))
	}
	if !errors.Is(results[0].Err, ErrProviderFailure) {
		t.Errorf("first stage error = %v, want ErrProviderFailure", results[0].Err)
	}
	for _, res := range results[1:] {
		if !errors.Is(res.Err, ErrProviderFailure) {
			t.Errorf("stage %s should carry the skip error, got %v", res.Type, res.Err)
		}
	}
	if len(stub.calls) != 1 {
		t.Errorf("adapter called %d times, want 1 (remaining stages skipped)", len(stub.calls))
	}
}

func TestGenerateAllWithProgressReportsEveryStage(t *testing.T) {
	stub := &stubAdapter{name: "openai", response: "output"}
	a, _ := newStubAnalyzer(stub, nil)

	var started, finished []core.ArtifactType
	results := a.GenerateAllWithProgress(context.Background(), "key", ProviderOpenAI, "source", StageObserver{
		OnStart: func(t core.ArtifactType) { started = append(started, t) },
		OnDone:  func(res StageResult) { finished = append(finished, res.Type) },
	})

	if len(results) != len(core.ArtifactTypes) {
		t.Fatalf("got %d results, want %d", len(results), len(core.ArtifactTypes))
	}
	if len(started) != len(core.ArtifactTypes) || len(finished) != len(core.ArtifactTypes) {
		t.Fatalf("callbacks: %d starts, %d dones, want %d each", len(started), len(finished), len(core.ArtifactTypes))
	}
	for i, want := range core.ArtifactTypes {
		if started[i] != want {
			t.Errorf("start %d = %s, want %s", i, started[i], want)
		}
		if finished[i] != want {
			t.Errorf("done %d = %s, want %s", i, finished[i], want)
		}
	}
}

func TestGenerateAllWithProgressSkippedStagesStaySilent(t *testing.T) {
	stub := &stubAdapter{name: "openai", err: fmt.Errorf("%w: boom", ErrProviderFailure)}
	a, _ := newStubAnalyzer(stub, nil)

	var starts, dones int
	results := a.GenerateAllWithProgress(context.Background(), "key", ProviderOpenAI, "source", StageObserver{
		OnStart: func(core.ArtifactType) { starts++ },
		OnDone:  func(StageResult) { dones++ },
	})

	// Only the PRD analysis actually ran; the skip placeholders still
	// appear in the results but fire no callbacks.
	if starts != 1 || dones != 1 {
		t.Errorf("callbacks: %d starts, %d dones, want 1 each", starts, dones)
	}
	if len(results) != len(core.ArtifactTypes) {
		t.Errorf("got %d results, want %d", len(results), len(core.ArtifactTypes))
	}
}

func TestGenerateAllContinuesPastLaterFailures(t *testing.T) {
	// Fail only the second stage; the rest must still run.
	call := 0
	a := NewAnalyzer(DefaultConfig())
	a.newAdapter = func(ctx context.Context, provider, apiKey string, config Config) (Adapter, error) {
		call++
		if call == 2 {
			return &stubAdapter{name: provider, err: fmt.Errorf("%w: stage down", ErrProviderFailure)}, nil
		}
		return &stubAdapter{name: provider, response: "output"}, nil
	}

	results := a.GenerateAll(context.Background(), "key", ProviderOpenAI, "source")

	if results[1].Err == nil {
		t.Error("second stage should have failed")
	}
	for i, res := range results {
		if i == 1 {
			continue
		}
		if res.Err != nil {
			t.Errorf("stage %s should have succeeded, got %v", res.Type, res.Err)
		}
	}
}
