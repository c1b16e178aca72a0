package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prdmaker/prdmaker/internal/core"
	"github.com/prdmaker/prdmaker/internal/llm"
	"github.com/prdmaker/prdmaker/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	llmProvider   string
	llmModel      string
	fallbackModel string
	artifactType  string
	generateAll   bool
	apiKeyFlag    string
	jsonPath      string // Save raw outputs
	configFile    string // Config file path
	plainOutput   bool   // Disable the TUI progress display
)

// AnalyzeCmd represents the analyze command.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze <prd-file>",
	Short: "Analyze a PRD file and extract structured artifacts",
	Long: `Analyze a Product Requirements Document with an LLM provider.

The analyzer extracts a structured feature list from the PRD, or with --all
generates the full artifact set:
- prd_analysis (structured feature list)
- task_table (development tasks per feature)
- function_map, dev_tree, system_config (markdown documents)`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	AnalyzeCmd.Flags().StringVarP(&llmProvider, "provider", "l", "openai", "LLM provider (openai/google)")
	AnalyzeCmd.Flags().StringVarP(&llmModel, "model", "m", "", "Model to use (provider-specific)")
	AnalyzeCmd.Flags().StringVar(&fallbackModel, "fallback-model", "", "Fallback model for the google provider")
	AnalyzeCmd.Flags().StringVarP(&artifactType, "type", "t", "prd_analysis", "Artifact type to generate")
	AnalyzeCmd.Flags().BoolVar(&generateAll, "all", false, "Generate every artifact type")
	AnalyzeCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Provider API key (defaults to the provider's env var)")
	AnalyzeCmd.Flags().StringVar(&jsonPath, "json", "", "Save raw outputs as JSON to this path")
	AnalyzeCmd.Flags().StringVar(&configFile, "config", "", "Config file (default: .prdmaker.yaml)")
	AnalyzeCmd.Flags().BoolVar(&plainOutput, "plain", false, "Plain line output instead of the progress display")
}

// Config file structure, shared with the setup wizard.
type fileConfig struct {
	Provider      string `yaml:"provider,omitempty"`
	Model         string `yaml:"model,omitempty"`
	FallbackModel string `yaml:"fallback_model,omitempty"`
	APIKeyEnv     string `yaml:"api_key_env,omitempty"`
}

func loadFileConfig(cmd *cobra.Command) (*fileConfig, error) {
	configPath := configFile
	if configPath == "" {
		if _, err := os.Stat(".prdmaker.yaml"); err == nil {
			configPath = ".prdmaker.yaml"
		} else if home, err := os.UserHomeDir(); err == nil {
			homePath := filepath.Join(home, ".prdmaker.yaml")
			if _, err := os.Stat(homePath); err == nil {
				configPath = homePath
			}
		}
	}
	if configPath == "" {
		return &fileConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Flags override config file values.
	if !cmd.Flags().Changed("provider") && cfg.Provider != "" {
		llmProvider = cfg.Provider
	}
	if !cmd.Flags().Changed("model") && cfg.Model != "" {
		llmModel = cfg.Model
	}
	if !cmd.Flags().Changed("fallback-model") && cfg.FallbackModel != "" {
		fallbackModel = cfg.FallbackModel
	}
	return &cfg, nil
}

// resolveAPIKey prefers the flag, then the configured env var, then the
// provider's conventional env var.
func resolveAPIKey(cfg *fileConfig) (string, error) {
	if apiKeyFlag != "" {
		return apiKeyFlag, nil
	}
	if cfg.APIKeyEnv != "" {
		if key := os.Getenv(cfg.APIKeyEnv); key != "" {
			return key, nil
		}
	}
	envName := "OPENAI_API_KEY"
	if llmProvider == llm.ProviderGoogle {
		envName = "GOOGLE_API_KEY"
	}
	if key := os.Getenv(envName); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key: set --api-key or %s", envName)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	prdPath := args[0]

	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	prdContent, err := os.ReadFile(prdPath)
	if err != nil {
		return fmt.Errorf("failed to read PRD: %w", err)
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return err
	}

	llmConfig := llm.DefaultConfig()
	llmConfig.Model = llmModel
	llmConfig.FallbackModel = fallbackModel
	analyzer := llm.NewAnalyzer(llmConfig)

	ctx := context.Background()

	if generateAll {
		return runGenerateAll(ctx, analyzer, apiKey, string(prdContent))
	}

	fmt.Printf("Analyzing with %s (%s)...\n", tui.ProviderStyle.Render(llmProvider), artifactType)
	output, err := analyzer.Analyze(ctx, llm.Request{
		APIKey:       apiKey,
		Provider:     llmProvider,
		Text:         string(prdContent),
		ArtifactType: core.ArtifactType(artifactType),
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonPath != "" {
		if err := saveRawOutputs(map[string]string{artifactType: output}); err != nil {
			return err
		}
	}
	printStageOutput(core.ArtifactType(artifactType), output)
	return nil
}

// runGenerateAll runs the full artifact set and renders per-stage progress.
// The sequencing itself lives in the analyzer; this only observes it.
func runGenerateAll(ctx context.Context, analyzer *llm.Analyzer, apiKey, prdContent string) error {
	var results []llm.StageResult

	if plainOutput {
		var start time.Time
		results = analyzer.GenerateAllWithProgress(ctx, apiKey, llmProvider, prdContent, llm.StageObserver{
			OnStart: func(t core.ArtifactType) {
				start = time.Now()
				fmt.Println(tui.RenderStageStart(string(t), llmProvider))
			},
			OnDone: func(res llm.StageResult) {
				fmt.Println(tui.RenderStageComplete(string(res.Type), time.Since(start), res.Err != nil))
			},
		})
	} else {
		display := tui.NewProgressDisplay()
		prog := tea.NewProgram(display)
		// The worker never touches the model; all state flows through
		// messages handled in Update.
		go func() {
			results = analyzer.GenerateAllWithProgress(ctx, apiKey, llmProvider, prdContent, llm.StageObserver{
				OnStart: func(t core.ArtifactType) {
					prog.Send(tui.StageStartMsg{Name: string(t), Provider: llmProvider, InputChars: len(prdContent)})
				},
				OnDone: func(res llm.StageResult) {
					prog.Send(tui.StageCompleteMsg{Failed: res.Err != nil})
				},
			})
			prog.Send(tui.RunDoneMsg{})
		}()
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("progress display failed: %w", err)
		}
	}

	if jsonPath != "" {
		raw := make(map[string]string, len(results))
		for _, res := range results {
			raw[string(res.Type)] = res.Output
		}
		if err := saveRawOutputs(raw); err != nil {
			return err
		}
	}

	for _, res := range results {
		fmt.Println()
		if res.Err != nil {
			fmt.Printf("%s %s: %v\n", tui.ErrorStyle.Render("✗"), res.Type, res.Err)
			continue
		}
		printStageOutput(res.Type, res.Output)
	}
	return nil
}

func printStageOutput(artifactType core.ArtifactType, output string) {
	fmt.Println(tui.TitleStyle.Render("── " + string(artifactType) + " ──"))

	switch artifactType {
	case core.ArtifactPRDAnalysis:
		features, err := core.ParseFeatures(output)
		if err != nil {
			fmt.Println(tui.WarningStyle.Render("could not parse feature list, raw output:"))
			fmt.Println(output)
			return
		}
		for i, f := range features {
			fmt.Printf("%d. %s  %s\n", i+1,
				tui.StageStyle.Render(f.Name),
				tui.HelpStyle.Render("["+string(f.Priority)+"]"))
			if f.Description != "" {
				fmt.Printf("   %s\n", f.Description)
			}
			if f.APIEndpoint != "" {
				fmt.Printf("   %s\n", tui.ProviderStyle.Render(f.APIEndpoint))
			}
		}

	case core.ArtifactTaskTable:
		tasks, err := core.ParseTasks(output)
		if err != nil {
			fmt.Println(tui.WarningStyle.Render("could not parse task list, raw output:"))
			fmt.Println(output)
			return
		}
		for i, t := range tasks {
			hours := "-"
			if t.EstimatedHours != nil {
				hours = fmt.Sprintf("%.0fh", *t.EstimatedHours)
			}
			fmt.Printf("%d. %s  %s %s\n", i+1, t.Description,
				tui.HelpStyle.Render(string(t.Status)),
				tui.HelpStyle.Render(hours))
		}

	default:
		fmt.Println(output)
	}
}

func saveRawOutputs(outputs map[string]string) error {
	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save outputs: %w", err)
	}
	fmt.Printf("Saved raw outputs to: %s\n", jsonPath)
	return nil
}
