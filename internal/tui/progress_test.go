package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestProgressDisplayStageMessages(t *testing.T) {
	p := NewProgressDisplay()

	m, _ := p.Update(StageStartMsg{Name: "prd_analysis", Provider: "openai", InputChars: 42})
	p = m.(*ProgressDisplay)
	view := p.View()
	if !strings.Contains(view, "prd_analysis") {
		t.Errorf("view should show the stage name, got %q", view)
	}
	if !strings.Contains(view, "openai") {
		t.Errorf("view should show the provider, got %q", view)
	}

	m, _ = p.Update(StageCompleteMsg{Failed: true})
	p = m.(*ProgressDisplay)
	if !p.stages[0].IsComplete || !p.stages[0].Failed {
		t.Errorf("stage after completion = %+v, want complete and failed", p.stages[0])
	}

	m, cmd := p.Update(RunDoneMsg{})
	p = m.(*ProgressDisplay)
	if cmd == nil {
		t.Error("RunDoneMsg should quit the program")
	}
	summary := p.View()
	if !strings.Contains(summary, "Generation Complete") {
		t.Errorf("final view should be the summary, got %q", summary)
	}
	if !strings.Contains(summary, "Failed: 1") {
		t.Errorf("summary should count the failed stage, got %q", summary)
	}
}

// All stage state flows through the program's message loop, so a worker
// goroutine sending progress concurrently with rendering must be safe.
func TestProgressDisplayConcurrentSends(t *testing.T) {
	p := NewProgressDisplay()
	prog := tea.NewProgram(p, tea.WithInput(nil), tea.WithoutRenderer())

	go func() {
		for i := 0; i < 5; i++ {
			prog.Send(StageStartMsg{Name: "stage", Provider: "openai", InputChars: 10})
			prog.Send(StageCompleteMsg{})
		}
		prog.Send(RunDoneMsg{})
	}()

	final, err := prog.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := final.(*ProgressDisplay)
	if len(got.stages) != 5 {
		t.Fatalf("got %d stages, want 5", len(got.stages))
	}
	for i, stage := range got.stages {
		if !stage.IsComplete {
			t.Errorf("stage %d not marked complete", i)
		}
	}
	if !got.quitting {
		t.Error("display should have reached the summary state")
	}
}
