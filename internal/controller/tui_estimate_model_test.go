package controller

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	model "github.com/mouse-blink/ubsynth/internal/model"
)

func TestEstimateModel_HandleEstimationMsgAndView(t *testing.T) {
	m := newEstimateModel()
	if got := m.View(); got != "Instrumenting seeds…\n" {
		t.Fatalf("View() before render = %q", got)
	}

	msg := estimationMsg{
		estimates: []model.Estimate{
			{Seed: "seeds/b.c", Candidates: 4, Eligible: 1},
			{Seed: "seeds/a.c", Candidates: 3, Eligible: 2},
			{Seed: "seeds/c.c", Err: errors.New("cc failed with exit code 1")},
		},
	}

	m = m.handleEstimationMsg(msg)
	if !m.rendered || m.candidates != 7 || m.eligible != 3 || m.failed != 1 || m.totalSeeds != 3 {
		t.Fatalf("handleEstimationMsg totals = %d/%d/%d/%d", m.candidates, m.eligible, m.failed, m.totalSeeds)
	}

	items := m.seeds.model.Items()
	if first := items[0].(seedItem); first.path != "seeds/a.c" {
		t.Fatalf("first item = %q, want seeds/a.c", first.path)
	}

	if last := items[2].(seedItem); last.err == "" {
		t.Fatalf("failed seed lost its error")
	}

	if m.seeds.lastSelected != 0 {
		t.Fatalf("lastSelected = %d, want 0", m.seeds.lastSelected)
	}

	m.width = 80
	m.height = 25

	view := m.View()
	if !strings.Contains(view, "ubsynth estimate") {
		t.Fatalf("View() missing title\n%s", view)
	}

	if cmd := m.Init(); cmd == nil {
		t.Fatalf("Init() returned nil cmd")
	}

	table := m.renderTable()
	if !strings.Contains(table, "Cand.") || !strings.Contains(table, "Seed") {
		t.Fatalf("renderTable missing headers\n%s", table)
	}

	// small terminals clamp the list height
	m.height = 0
	m.width = 20
	_ = m.renderTable()
}

func TestEstimateModel_Error(t *testing.T) {
	m := newEstimateModel()
	m = m.handleEstimationMsg(estimationMsg{err: errors.New("context canceled")})

	if view := m.View(); !strings.Contains(view, "estimation error: context canceled") {
		t.Fatalf("View() missing error\n%s", view)
	}
}

func TestEstimateModel_UpdateBranches(t *testing.T) {
	m := newEstimateModel()
	m.rendered = true
	m.seeds.setItems([]list.Item{seedItem{path: "a.c", candidates: 1}})

	updatedModel, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("expected tick cmd")
	}

	updated := updatedModel.(estimateModel)
	if updated.seeds.animOffset != 1 {
		t.Fatalf("animOffset = %d, want 1", updated.seeds.animOffset)
	}

	updatedModel, _ = updated.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	updated = updatedModel.(estimateModel)

	if updated.width != 100 || updated.height != 40 {
		t.Fatalf("window size not applied")
	}

	_, cmd = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit cmd")
	}

	updatedModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if updatedModel.(estimateModel).seeds.lastSelected == -1 {
		t.Fatalf("expected selection to be tracked")
	}

	fresh := newEstimateModel()

	updatedModel, cmd = fresh.Update(tickMsg(time.Now()))
	if cmd != nil {
		t.Fatalf("tick before render should not reschedule")
	}

	updatedModel, _ = updatedModel.Update(finishedMsg{})
	if !updatedModel.(estimateModel).rendered {
		t.Fatalf("expected rendered after finishedMsg")
	}
}

func TestSeedRow(t *testing.T) {
	delegate := scrollDelegate{row: seedRow}
	items := []list.Item{
		seedItem{path: "path/to/seed.c", candidates: 2, eligible: 1},
		seedItem{path: "path/to/broken.c", err: "boom"},
	}
	m := list.New(items, delegate, 40, 5)

	var buf bytes.Buffer

	delegate.Render(&buf, m, 0, items[0])

	if !strings.Contains(buf.String(), "path") {
		t.Fatalf("render output missing path")
	}

	buf.Reset()
	delegate.Render(&buf, m, 1, items[1])

	if !strings.Contains(buf.String(), "error") {
		t.Fatalf("render output missing error marker: %q", buf.String())
	}

	buf.Reset()
	delegate.Render(&buf, m, 0, mutantResult{id: "x"})

	if buf.Len() != 0 {
		t.Fatalf("render of foreign item wrote %q", buf.String())
	}
}
