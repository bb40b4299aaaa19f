package controller

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

type quitModel struct{}

func (m quitModel) Init() tea.Cmd { return tea.Quit }
func (m quitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}
func (m quitModel) View() string { return "" }

func waitWithTimeout(t *testing.T, name string, fn func()) {
	t.Helper()

	done := make(chan struct{})

	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s timed out", name)
	}
}

func TestTUI_StartWithModel_WaitAndClose(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)

	if err := tui.startWithModel(quitModel{}); err != nil {
		t.Fatalf("startWithModel error = %v", err)
	}

	waitWithTimeout(t, "Wait()", tui.Wait)
	waitWithTimeout(t, "Close()", tui.Close)

	if tui.started || tui.program != nil {
		t.Fatalf("Wait() should reset the program")
	}
}

func TestTUI_Send_And_EnsureStarted_NoPanic(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)

	// send before start is a no-op
	tui.send(upcomingMsg{count: 1})

	tui.Close()
	tui.Wait()

	// ensureStarted does not restart a started UI
	tui.started = true
	tui.ensureStarted()

	if tui.program != nil {
		t.Fatalf("ensureStarted() created a program for a started UI")
	}
}

func TestTUI_DisplayWithoutProgram(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)
	tui.started = true

	tui.DisplayConcurrencyInfo(2, 0, 1)
	tui.DisplayUpcomingSeeds(3)
	tui.DisplayStartingSeed("seeds/a.c", 0)
	tui.DisplayCompletedSeed(m.FileResult{Seed: "seeds/a.c"})

	if err := tui.DisplayEstimation(nil, nil); err != nil {
		t.Fatalf("DisplayEstimation() error = %v", err)
	}

	boom := errors.New("boom")
	if err := tui.DisplayReports(nil, boom); !errors.Is(err, boom) {
		t.Fatalf("DisplayReports() error = %v, want boom", err)
	}
}

func TestTUI_NonInteractiveModes(t *testing.T) {
	tests := []struct {
		name    string
		option  StartOption
		display func(*TUI)
	}{
		{
			name:   "run",
			option: WithRunMode(),
			display: func(tui *TUI) {
				tui.DisplayConcurrencyInfo(1, 0, 1)
				tui.DisplayUpcomingSeeds(1)
				tui.DisplayStartingSeed("seeds/a.c", 0)
				tui.DisplayCompletedSeed(m.FileResult{Seed: "seeds/a.c", Candidates: 1})
			},
		},
		{
			name:   "estimate",
			option: WithEstimateMode(),
			display: func(tui *TUI) {
				_ = tui.DisplayEstimation([]m.Estimate{{Seed: "seeds/a.c", Candidates: 2, Eligible: 1}}, nil)
			},
		},
		{
			name:   "view",
			option: WithViewMode(),
			display: func(tui *TUI) {
				_ = tui.DisplayReports([]m.Report{{MutantID: "abc", Verdict: m.Unverified}}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tui := NewTUI(&buf)

			if tui.interactive {
				t.Fatalf("buffer output should not be interactive")
			}

			if err := tui.Start(tt.option); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			tt.display(tui)

			waitWithTimeout(t, "Close()", tui.Close)
			waitWithTimeout(t, "Wait()", tui.Wait)
		})
	}
}
