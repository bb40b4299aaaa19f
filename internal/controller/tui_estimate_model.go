package controller

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	model "github.com/mouse-blink/ubsynth/internal/model"
)

// seedRow renders candidates, eligible candidates and the seed path.
func seedRow(item list.Item, selected bool, width int, fit fitFunc) (string, bool) {
	seed, ok := item.(seedItem)
	if !ok {
		return "", false
	}

	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	pathStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	if selected {
		countStyle = selectedRowStyle()
		pathStyle = selectedRowStyle()
	}

	countStyle = countStyle.Width(6).Align(lipgloss.Right)

	eligible := fmt.Sprintf("%d", seed.eligible)
	if seed.err != "" {
		countStyle = countStyle.Foreground(lipgloss.Color("1"))
		eligible = "error"
	}

	// two count columns of six plus spacing
	return fmt.Sprintf("%s  %s  %s",
		countStyle.Render(fmt.Sprintf("%d", seed.candidates)),
		countStyle.Render(eligible),
		pathStyle.Render(fit(seed.path, width-16)),
	), true
}

// estimateModel lists the candidate census of every seed.
type estimateModel struct {
	width      int
	height     int
	seeds      scrollList
	candidates int
	eligible   int
	failed     int
	totalSeeds int
	err        error
	rendered   bool
}

func newEstimateModel() estimateModel {
	return estimateModel{seeds: newScrollList(seedRow, "Filter by path…")}
}

func (m estimateModel) Init() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m estimateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.rendered && m.seeds.tick() {
			return m, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
				return tickMsg(t)
			})
		}

	case tea.KeyMsg:
		if s := msg.String(); s == "q" || s == "ctrl+c" {
			return m, tea.Quit
		}

		cmd, _ := m.seeds.update(msg)

		return m, cmd

	case estimationMsg:
		m = m.handleEstimationMsg(msg)

	case finishedMsg:
		m.rendered = true
	}

	return m, nil
}

func (m estimateModel) handleEstimationMsg(msg estimationMsg) estimateModel {
	m.rendered = true
	m.err = msg.err

	if msg.err != nil {
		return m
	}

	estimates := append([]model.Estimate(nil), msg.estimates...)
	sort.Slice(estimates, func(i, j int) bool { return estimates[i].Seed < estimates[j].Seed })

	items := make([]list.Item, 0, len(estimates))
	m.candidates, m.eligible, m.failed = 0, 0, 0

	for _, est := range estimates {
		item := seedItem{path: string(est.Seed), candidates: est.Candidates, eligible: est.Eligible}
		if est.Err != nil {
			item.err = est.Err.Error()
			m.failed++
		}

		items = append(items, item)
		m.candidates += est.Candidates
		m.eligible += est.Eligible
	}

	m.totalSeeds = len(items)
	m.seeds.setItems(items)

	return m
}

func (m estimateModel) View() string {
	if !m.rendered {
		return "Instrumenting seeds…\n"
	}

	title := screenTitle("ubsynth estimate")

	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, screenError("estimation error: "+m.err.Error()))
	}

	summary := screenSummary(
		"Seeds", fmt.Sprintf("%d", m.totalSeeds),
		"Candidates", fmt.Sprintf("%d", m.candidates),
		"Eligible", fmt.Sprintf("%d", m.eligible),
		"Failed", fmt.Sprintf("%d", m.failed),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		m.renderTable(),
		screenFooter(m.width, "↑/k up • ↓/j down • g/G top/bottom • / filter • q quit"),
	)
}

func (m estimateModel) renderTable() string {
	// title, summary, footer, border and header take nine lines
	width := max(m.width-4, 20)

	return m.seeds.view(fmt.Sprintf("%6s  %6s  %s", "Cand.", "Elig.", "Seed"), width, max(m.height-9, 5))
}
