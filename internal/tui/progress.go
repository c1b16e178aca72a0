package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StageInfo holds information about one artifact generation stage.
type StageInfo struct {
	Name       string
	Provider   string
	InputChars int
	StartTime  time.Time
	EndTime    time.Time
	IsComplete bool
	Failed     bool
}

// ProgressDisplay is a Bubble Tea model for showing generation progress.
type ProgressDisplay struct {
	spinner    spinner.Model
	stages     []StageInfo
	currentIdx int
	isRunning  bool
	quitting   bool
}

// NewProgressDisplay creates a new progress display.
func NewProgressDisplay() *ProgressDisplay {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &ProgressDisplay{
		spinner:    s,
		stages:     []StageInfo{},
		currentIdx: -1,
	}
}

// StageStartMsg begins tracking a new stage. Delivered through the Bubble Tea
// program so the model is only ever mutated inside Update.
type StageStartMsg struct {
	Name       string
	Provider   string
	InputChars int
}

// StageCompleteMsg marks the current stage as finished.
type StageCompleteMsg struct {
	Failed bool
}

// RunDoneMsg ends the display and switches to the summary view.
type RunDoneMsg struct{}

// Init implements tea.Model.
func (p *ProgressDisplay) Init() tea.Cmd {
	return p.spinner.Tick
}

// Update implements tea.Model.
func (p *ProgressDisplay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}

	case StageStartMsg:
		p.stages = append(p.stages, StageInfo{
			Name:       msg.Name,
			Provider:   msg.Provider,
			InputChars: msg.InputChars,
			StartTime:  time.Now(),
		})
		p.currentIdx = len(p.stages) - 1
		p.isRunning = true
		return p, nil

	case StageCompleteMsg:
		if p.currentIdx >= 0 && p.currentIdx < len(p.stages) {
			p.stages[p.currentIdx].IsComplete = true
			p.stages[p.currentIdx].Failed = msg.Failed
			p.stages[p.currentIdx].EndTime = time.Now()
		}
		p.isRunning = false
		return p, nil

	case RunDoneMsg:
		p.isRunning = false
		p.quitting = true
		return p, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}

	return p, nil
}

// View implements tea.Model.
func (p *ProgressDisplay) View() string {
	if p.quitting {
		return p.summaryView()
	}

	if p.currentIdx < 0 || p.currentIdx >= len(p.stages) {
		return ""
	}

	stage := p.stages[p.currentIdx]
	elapsed := time.Since(stage.StartTime).Truncate(time.Second)

	var status string
	if p.isRunning {
		status = p.spinner.View()
	} else if stage.Failed {
		status = ErrorStyle.Render("✗")
	} else {
		status = SuccessStyle.Render("✓")
	}

	return fmt.Sprintf("%s %s  %s  %s",
		status,
		StageStyle.Render(stage.Name),
		ProviderStyle.Render(stage.Provider),
		HelpStyle.Render(elapsed.String()),
	)
}

// summaryView shows the final summary after completion.
func (p *ProgressDisplay) summaryView() string {
	if len(p.stages) == 0 {
		return ""
	}

	var failed int
	var totalDuration time.Duration
	for _, stage := range p.stages {
		if stage.Failed {
			failed++
		}
		if stage.IsComplete {
			totalDuration += stage.EndTime.Sub(stage.StartTime)
		}
	}

	return fmt.Sprintf("\n%s\n  Stages: %d  Failed: %d  Time: %s\n",
		TitleStyle.Render("Generation Complete"),
		len(p.stages),
		failed,
		totalDuration.Truncate(time.Second).String(),
	)
}

// RenderStageStart returns a string for stage start (non-interactive mode).
func RenderStageStart(name, provider string) string {
	return fmt.Sprintf("%s %s  %s",
		SpinnerStyle.Render("→"),
		StageStyle.Render(name),
		ProviderStyle.Render(provider),
	)
}

// RenderStageComplete returns a string for stage completion (non-interactive mode).
func RenderStageComplete(name string, duration time.Duration, failed bool) string {
	status := SuccessStyle.Render("✓")
	if failed {
		status = ErrorStyle.Render("✗")
	}
	return fmt.Sprintf("%s %s  %s",
		status,
		StageStyle.Render(name),
		HelpStyle.Render(duration.Truncate(time.Second).String()),
	)
}
