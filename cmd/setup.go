package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prdmaker/prdmaker/internal/llm"
	"github.com/prdmaker/prdmaker/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resetConfig bool

// SetupCmd represents the setup command.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Long: `Configure prdmaker with an interactive wizard.

The wizard selects the LLM provider and model used by the analyze command.
Configuration is saved to ~/.prdmaker.yaml`,
	RunE: runSetup,
}

func init() {
	SetupCmd.Flags().BoolVar(&resetConfig, "reset", false, "Reset configuration to defaults")
}

// providerChoice describes one selectable provider or model.
type providerChoice struct {
	id, name, description string
}

func (c providerChoice) Title() string       { return c.name }
func (c providerChoice) Description() string { return c.description }
func (c providerChoice) FilterValue() string { return c.name }

var providerChoices = []providerChoice{
	{id: llm.ProviderOpenAI, name: "OpenAI", description: "Chat completions, needs OPENAI_API_KEY"},
	{id: llm.ProviderGoogle, name: "Google Gemini", description: "Seeded chat with fallback, needs GOOGLE_API_KEY"},
}

var modelChoices = map[string][]providerChoice{
	llm.ProviderOpenAI: {
		{id: "gpt-4", name: "gpt-4", description: "Default, best extraction quality"},
		{id: "gpt-4-turbo", name: "gpt-4-turbo", description: "Faster, cheaper"},
		{id: "gpt-3.5-turbo", name: "gpt-3.5-turbo", description: "Cheapest"},
	},
	llm.ProviderGoogle: {
		{id: "gemini-1.5-pro", name: "gemini-1.5-pro", description: "Default"},
		{id: "gemini-1.5-flash", name: "gemini-1.5-flash", description: "Faster, cheaper"},
		{id: "gemini-pro", name: "gemini-pro", description: "Legacy fallback model"},
	},
}

func runSetup(cmd *cobra.Command, args []string) error {
	configPath := setupConfigPath()

	if resetConfig {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove config: %w", err)
		}
		fmt.Println(tui.SuccessStyle.Render("✓") + " Configuration reset to defaults")
		fmt.Printf("  Removed: %s\n", configPath)
		return nil
	}

	p := tea.NewProgram(newSetupModel())
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	finalModel := m.(setupModel)
	if finalModel.cancelled {
		fmt.Println("Setup cancelled")
		return nil
	}

	keyEnv := "OPENAI_API_KEY"
	if finalModel.provider == llm.ProviderGoogle {
		keyEnv = "GOOGLE_API_KEY"
	}
	cfg := fileConfig{
		Provider:  finalModel.provider,
		Model:     finalModel.model,
		APIKeyEnv: keyEnv,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.SuccessStyle.Render("✓") + " Configuration saved to " + configPath)
	fmt.Println()
	fmt.Printf("  Provider: %s\n", tui.ProviderStyle.Render(cfg.Provider))
	fmt.Printf("  Model:    %s\n", tui.ProviderStyle.Render(cfg.Model))
	fmt.Printf("  API key:  read from %s\n", cfg.APIKeyEnv)
	return nil
}

func setupConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prdmaker.yaml"
	}
	return filepath.Join(home, ".prdmaker.yaml")
}

// Bubble Tea model for the setup wizard

type setupModel struct {
	step      int // 0=provider, 1=model
	lists     []list.Model
	provider  string
	model     string
	cancelled bool
}

func newSetupModel() setupModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("#9b59b6"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(lipgloss.Color("#95a5a6"))

	items := make([]list.Item, len(providerChoices))
	for i, c := range providerChoices {
		items[i] = c
	}
	providerList := list.New(items, delegate, 60, 14)
	providerList.Title = "Select LLM Provider"
	providerList.SetShowStatusBar(false)
	providerList.SetFilteringEnabled(false)
	providerList.Styles.Title = tui.TitleStyle

	// The model list is filled once the provider is known.
	modelList := list.New(nil, delegate, 60, 14)
	modelList.Title = "Select Model"
	modelList.SetShowStatusBar(false)
	modelList.SetFilteringEnabled(false)
	modelList.Styles.Title = tui.TitleStyle

	return setupModel{
		lists: []list.Model{providerList, modelList},
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		for i := range m.lists {
			m.lists[i].SetWidth(msg.Width)
			m.lists[i].SetHeight(msg.Height - 4)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if m.step == 0 {
				if choice, ok := m.lists[0].SelectedItem().(providerChoice); ok {
					m.provider = choice.id
					items := make([]list.Item, len(modelChoices[choice.id]))
					for i, c := range modelChoices[choice.id] {
						items[i] = c
					}
					m.lists[1].SetItems(items)
				}
				m.step = 1
				return m, nil
			}
			if choice, ok := m.lists[1].SelectedItem().(providerChoice); ok {
				m.model = choice.id
			}
			return m, tea.Quit

		case "left", "h":
			if m.step > 0 {
				m.step--
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.lists[m.step], cmd = m.lists[m.step].Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.cancelled {
		return ""
	}

	steps := []string{"Provider", "Model"}
	progress := "\n  "
	for i, s := range steps {
		if i == m.step {
			progress += tui.SelectedStyle.Render(fmt.Sprintf("[%s]", s))
		} else if i < m.step {
			progress += tui.SuccessStyle.Render(fmt.Sprintf("✓ %s", s))
		} else {
			progress += tui.UnselectedStyle.Render(fmt.Sprintf("○ %s", s))
		}
		if i < len(steps)-1 {
			progress += " → "
		}
	}
	progress += "\n\n"

	help := tui.HelpStyle.Render("\n  ↑/↓: navigate • enter: select • ←: back • q: quit")

	return progress + m.lists[m.step].View() + help
}
