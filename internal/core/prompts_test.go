package core

import (
	"strings"
	"testing"
)

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		name         string
		artifactType ArtifactType
		want         string
	}{
		{name: "prd analysis", artifactType: ArtifactPRDAnalysis, want: PRDAnalysisPrompt},
		{name: "task table", artifactType: ArtifactTaskTable, want: TaskTablePrompt},
		{name: "function map", artifactType: ArtifactFunctionMap, want: FunctionMapPrompt},
		{name: "dev tree", artifactType: ArtifactDevTree, want: DevTreePrompt},
		{name: "system config", artifactType: ArtifactSystemConfig, want: SystemConfigPrompt},
		{name: "unknown type falls back to analysis", artifactType: "weekly_report", want: PRDAnalysisPrompt},
		{name: "empty type falls back to analysis", artifactType: "", want: PRDAnalysisPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePrompt(tt.artifactType); got != tt.want {
				t.Errorf("ResolvePrompt(%q) returned the wrong template", tt.artifactType)
			}
		})
	}
}

func TestPromptsRequestJSONOutput(t *testing.T) {
	// The two structured prompts must pin the model to JSON-only answers;
	// the parser depends on it.
	for _, prompt := range []string{PRDAnalysisPrompt, TaskTablePrompt} {
		if !strings.Contains(prompt, "JSON") {
			t.Error("structured prompt does not mention JSON output")
		}
	}
}
