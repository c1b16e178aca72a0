package llm

import (
	"context"
	"fmt"

	"github.com/prdmaker/prdmaker/internal/core"
)

// Request carries one analysis invocation. Transient: constructed per call,
// never stored.
type Request struct {
	// APIKey is the provider credential, supplied per request.
	APIKey string

	// Provider selects which backend to invoke ("openai" or "google").
	Provider string

	// Text is the PRD or feature-list content sent as the user message.
	Text string

	// ArtifactType selects the prompt template and output shape.
	ArtifactType core.ArtifactType
}

// Analyzer resolves prompts and dispatches requests to provider adapters.
type Analyzer struct {
	config Config

	// newAdapter is swapped in tests to avoid building real clients.
	newAdapter func(ctx context.Context, provider, apiKey string, config Config) (Adapter, error)
}

// NewAnalyzer creates an analyzer with the given adapter configuration.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{
		config:     config,
		newAdapter: NewAdapter,
	}
}

// Analyze resolves the prompt for the artifact type, dispatches to the
// provider, and passes the raw completion through unchanged. The provider tag
// is the only thing validated here; an unknown tag fails with
// ErrUnsupportedProvider before any network call.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (string, error) {
	systemPrompt := core.ResolvePrompt(req.ArtifactType)

	adapter, err := a.newAdapter(ctx, req.Provider, req.APIKey, a.config)
	if err != nil {
		return "", err
	}

	return adapter.Generate(ctx, systemPrompt, req.Text)
}

// StageResult is the outcome of one artifact generation within a full run.
type StageResult struct {
	Type   core.ArtifactType
	Output string
	Err    error
}

// StageObserver receives progress callbacks during a full artifact run.
// OnStart fires before each provider call, OnDone right after it returns.
// Skipped stages report neither. Either field may be nil.
type StageObserver struct {
	OnStart func(t core.ArtifactType)
	OnDone  func(res StageResult)
}

func (o StageObserver) start(t core.ArtifactType) {
	if o.OnStart != nil {
		o.OnStart(t)
	}
}

func (o StageObserver) done(res StageResult) {
	if o.OnDone != nil {
		o.OnDone(res)
	}
}

// GenerateAll runs every artifact type sequentially as independent
// invocations. The PRD analysis runs first and its extracted feature list
// becomes the input for the remaining stages, mirroring the web flow. A
// failed stage is recorded and the run continues; nothing is cached between
// stages, each call re-sends its full input.
func (a *Analyzer) GenerateAll(ctx context.Context, apiKey, provider, sourceText string) []StageResult {
	return a.GenerateAllWithProgress(ctx, apiKey, provider, sourceText, StageObserver{})
}

// GenerateAllWithProgress is GenerateAll with per-stage callbacks, so callers
// rendering progress do not re-implement the stage sequencing.
func (a *Analyzer) GenerateAllWithProgress(ctx context.Context, apiKey, provider, sourceText string, obs StageObserver) []StageResult {
	results := make([]StageResult, 0, len(core.ArtifactTypes))

	obs.start(core.ArtifactPRDAnalysis)
	featureText, err := a.Analyze(ctx, Request{
		APIKey:       apiKey,
		Provider:     provider,
		Text:         sourceText,
		ArtifactType: core.ArtifactPRDAnalysis,
	})
	res := StageResult{Type: core.ArtifactPRDAnalysis, Output: featureText, Err: err}
	obs.done(res)
	results = append(results, res)
	if err != nil {
		// Nothing to feed the remaining stages.
		for _, t := range core.ArtifactTypes[1:] {
			results = append(results, StageResult{Type: t, Err: fmt.Errorf("skipped: PRD analysis failed: %w", err)})
		}
		return results
	}

	for _, t := range core.ArtifactTypes[1:] {
		obs.start(t)
		output, err := a.Analyze(ctx, Request{
			APIKey:       apiKey,
			Provider:     provider,
			Text:         featureText,
			ArtifactType: t,
		})
		res := StageResult{Type: t, Output: output, Err: err}
		obs.done(res)
		results = append(results, res)
	}
	return results
}
