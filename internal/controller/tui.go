package controller

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// TUI implements UI using Bubble Tea. Display calls are forwarded to the
// running program as messages, so they are safe to call from workers.
type TUI struct {
	output io.Writer

	mu          sync.Mutex
	program     *tea.Program
	started     bool
	closed      bool
	interactive bool
	done        chan struct{}
	err         error
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, interactive: IsTTY(output)}
}

// Start launches the program for the requested mode.
func (t *TUI) Start(options ...StartOption) error {
	cfg := newStartConfig(options)

	var model tea.Model

	switch cfg.mode {
	case ModeRun:
		model = newRunModel()
	case ModeView:
		model = newReportsModel()
	default:
		model = newEstimateModel()
	}

	return t.startWithModel(model)
}

func (t *TUI) startWithModel(model tea.Model) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithOutput(t.output)}
	if t.interactive {
		opts = append(opts, tea.WithAltScreen(), tea.WithMouseCellMotion())
	} else {
		opts = append(opts, tea.WithInput(nil))
	}

	t.program = tea.NewProgram(model, opts...)
	t.started = true
	t.closed = false
	t.done = make(chan struct{})

	program, done := t.program, t.done

	go func() {
		_, err := program.Run()

		t.mu.Lock()
		t.err = err
		t.mu.Unlock()

		close(done)
	}()

	return nil
}

// Close tells the program that no further updates will arrive. Interactive
// sessions stay open until the user quits.
func (t *TUI) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.closed || t.program == nil {
		return
	}

	t.closed = true
	t.program.Send(finishedMsg{})

	if !t.interactive {
		t.program.Quit()
	}
}

// Wait blocks until the program exits.
func (t *TUI) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	<-done

	t.mu.Lock()
	t.started = false
	t.program = nil
	t.mu.Unlock()
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(msg)
}

func (t *TUI) ensureStarted(options ...StartOption) {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()

	if started {
		return
	}

	_ = t.Start(options...)
}

// DisplayEstimation shows the per-seed census.
func (t *TUI) DisplayEstimation(estimates []m.Estimate, err error) error {
	t.ensureStarted(WithEstimateMode())
	t.send(estimationMsg{estimates: estimates, err: err})

	return err
}

// DisplayConcurrencyInfo shows worker and shard settings.
func (t *TUI) DisplayConcurrencyInfo(threads int, shardIndex int, shardCount int) {
	t.send(concurrencyMsg{threads: threads, shardIndex: shardIndex, shards: shardCount})
}

// DisplayUpcomingSeeds sets the progress total.
func (t *TUI) DisplayUpcomingSeeds(count int) {
	t.send(upcomingMsg{count: count})
}

// DisplayStartingSeed marks a worker busy with seed.
func (t *TUI) DisplayStartingSeed(seed m.Path, worker int) {
	t.send(startSeedMsg{seed: string(seed), worker: worker})
}

// DisplayCompletedSeed adds the mutants of one seed to the results.
func (t *TUI) DisplayCompletedSeed(result m.FileResult) {
	t.send(completedSeedMsg{result: result})
}

// DisplayReports shows stored manifests.
func (t *TUI) DisplayReports(reports []m.Report, err error) error {
	t.ensureStarted(WithViewMode())
	t.send(reportsMsg{reports: reports, err: err})

	return err
}
