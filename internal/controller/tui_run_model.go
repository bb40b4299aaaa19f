package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	model "github.com/mouse-blink/ubsynth/internal/model"
)

const failedStatus = "failed"

// mutantResult is one row of the results list: a written mutant or a seed
// that failed before producing any.
type mutantResult struct {
	id       string
	seed     string
	output   string
	category string
	status   string
	detail   string
}

func (r mutantResult) FilterValue() string {
	return r.id + " " + r.seed + " " + r.output + " " + r.category + " " + r.status
}

// file is what the results list shows in its last column.
func (r mutantResult) file() string {
	if r.output != "" {
		return r.output
	}

	return r.seed
}

// mutantRow renders id, verdict, category and the mutant file.
func mutantRow(item list.Item, selected bool, width int, fit fitFunc) (string, bool) {
	result, ok := item.(mutantResult)
	if !ok {
		return "", false
	}

	idStyle, statusStyle, categoryStyle, fileStyle := mutantStyles(result.status, selected)

	id := result.id
	if id == "" {
		id = "--------"
	}

	// id, status and category columns with spacing
	return fmt.Sprintf("%s  %s  %s  %s",
		idStyle.Width(8).Render(fmt.Sprintf("%-8.8s", id)),
		statusStyle.Width(11).Render(fmt.Sprintf("%-11s", result.status)),
		categoryStyle.Width(9).Render(fmt.Sprintf("%-9.9s", shortCategory(result.category))),
		fileStyle.Render(fit(result.file(), width-36)),
	), true
}

var verdictColors = map[string]lipgloss.Color{
	string(model.Confirmed):   lipgloss.Color("2"),
	string(model.Unverified):  lipgloss.Color("11"),
	string(model.Unconfirmed): lipgloss.Color("8"),
	string(model.VerifyError): lipgloss.Color("1"),
	failedStatus:              lipgloss.Color("1"),
}

func mutantStyles(status string, selected bool) (id, verdict, category, file lipgloss.Style) {
	if selected {
		s := selectedRowStyle()
		return s, s, s, s
	}

	color, ok := verdictColors[status]
	if !ok {
		color = lipgloss.Color("8")
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		lipgloss.NewStyle().Foreground(color).Bold(true),
		lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
}

// shortCategory keeps the category column narrow.
func shortCategory(category string) string {
	short := map[string]string{
		string(model.BufferOverflow):         "overflow",
		string(model.DoubleFree):             "dfree",
		string(model.NullPointerDereference): "null",
		string(model.UseAfterFree):           "uaf",
		string(model.UseAfterScope):          "uas",
		string(model.DivisionByZero):         "div0",
		string(model.IntegerOverflow):        "intovf",
		string(model.OutOfBound):             "oob",
		string(model.UseOfUninit):            "uninit",
		string(model.MemoryLeak):             "leak",
	}

	if s, ok := short[category]; ok {
		return s
	}

	return category
}

// runModel shows synthesis progress and, once every seed is done, the list
// of written mutants. The same model browses stored reports.
type runModel struct {
	width           int
	height          int
	progressBar     progress.Model
	totalSeeds      int
	completedCount  int
	progressPercent float64
	threads         int
	shardIndex      int
	totalShards     int
	workerSeeds     map[int]string
	rendered        bool
	finished        bool
	browsing        bool
	loadErr         error
	results         []mutantResult
	rows            scrollList
	showDetail      bool
	selectedDetail  string
	selectedTitle   string
}

func newRunModel() runModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return runModel{
		progressBar: prog,
		rows:        newScrollList(mutantRow, "Filter mutants…"),
		threads:     1,
		totalShards: 1,
		workerSeeds: make(map[int]string),
	}
}

// newReportsModel browses manifests loaded from a reports directory.
func newReportsModel() runModel {
	rm := newRunModel()
	rm.browsing = true

	return rm
}

func (m runModel) Init() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)

	case tea.KeyMsg:
		m, cmd = m.handleKeyMsg(msg)

	case tea.MouseMsg:
		m, cmd = m.handleMouseMsg(msg)

	case tickMsg:
		return m.handleTickMsg(msg)

	case concurrencyMsg:
		m.threads = max(msg.threads, 1)
		m.shardIndex = msg.shardIndex
		m.totalShards = msg.shards
		m.rendered = true

	case upcomingMsg:
		m.totalSeeds = msg.count
		m.rendered = true

		if m.totalSeeds > 0 {
			m.progressPercent = float64(m.completedCount) / float64(m.totalSeeds)
		}

	case startSeedMsg:
		m.workerSeeds[msg.worker] = msg.seed
		m.rendered = true

	case completedSeedMsg:
		m = m.handleCompletedSeed(msg)

	case reportsMsg:
		m = m.handleReports(msg)

	case finishedMsg:
		m.finished = true
		m.rendered = true
	}

	return m, cmd
}

func (m runModel) handleCompletedSeed(msg completedSeedMsg) runModel {
	res := msg.result
	seed := string(res.Seed)

	m.completedCount++
	m.rendered = true

	for worker, s := range m.workerSeeds {
		if s == seed {
			delete(m.workerSeeds, worker)
			break
		}
	}

	if res.Err != nil {
		m.results = append(m.results, mutantResult{
			seed:   seed,
			status: failedStatus,
			detail: res.Err.Error(),
		})
	}

	for _, r := range res.Reports {
		m.results = append(m.results, resultFromReport(r))
	}

	m.refreshList()

	if m.totalSeeds > 0 {
		m.progressPercent = float64(m.completedCount) / float64(m.totalSeeds)
	}

	return m
}

func (m runModel) handleReports(msg reportsMsg) runModel {
	m.rendered = true
	m.finished = true
	m.loadErr = msg.err
	m.results = m.results[:0]

	for _, r := range msg.reports {
		m.results = append(m.results, resultFromReport(r))
	}

	m.refreshList()

	return m
}

func resultFromReport(r model.Report) mutantResult {
	var detail strings.Builder

	if r.Statement != "" {
		detail.WriteString(r.Statement)
		detail.WriteString("\n")
	}

	fmt.Fprintf(&detail, "seed %s (candidate %d, site %d)", r.Seed, r.CandidateID, r.Site)

	if r.Sanitizer != "" {
		detail.WriteString("\n\n")
		detail.WriteString(r.Sanitizer)
	}

	return mutantResult{
		id:       r.MutantID,
		seed:     string(r.Seed),
		output:   string(r.Output),
		category: string(r.Category),
		status:   string(r.Verdict),
		detail:   detail.String(),
	}
}

func (m *runModel) refreshList() {
	items := make([]list.Item, 0, len(m.results))
	for _, r := range m.results {
		items = append(items, r)
	}

	m.rows.setItems(items)
}

func (m runModel) countStatus(status string) int {
	count := 0

	for _, result := range m.results {
		if result.status == status {
			count++
		}
	}

	return count
}

func (m runModel) View() string {
	if !m.rendered {
		if m.browsing {
			return "Loading reports…\n"
		}

		return "Preparing seeds…\n"
	}

	if m.finished {
		return m.viewResults()
	}

	return m.viewProgress()
}

func (m runModel) viewProgress() string {
	summary := screenSummary(
		"Seeds", fmt.Sprintf("%d / %d", m.completedCount, m.totalSeeds),
		"Mutants", fmt.Sprintf("%d", len(m.results)-m.countStatus(failedStatus)),
		"Workers", fmt.Sprintf("%d", m.threads),
		"Shard", fmt.Sprintf("%d / %d", m.shardIndex, m.totalShards),
	)

	progressView := lipgloss.NewStyle().Padding(0, 2).Render(m.progressBar.ViewAs(m.progressPercent))

	return lipgloss.JoinVertical(lipgloss.Left,
		screenTitle("ubsynth run"),
		summary,
		progressView,
		m.renderWorkerBox(),
		screenFooter(m.width, "Press q to quit"),
	)
}

func (m runModel) renderWorkerBox() string {
	contentStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Margin(1, 1, 1, 0).
		Width(max(m.width-4, 20))

	fileStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	// border and padding take four columns
	availableWidth := m.width - 8
	prefixWidth := 0
	labelFormat := ""

	if m.threads > 1 {
		digits := len(fmt.Sprintf("%d", m.threads-1))
		prefixWidth = 7 + digits + 2 // "Worker " + digits + ": "
		labelFormat = fmt.Sprintf("Worker %%%dd: %%s", digits)
	}

	lines := make([]string, 0, m.threads)

	for i := range m.threads {
		seed := m.workerSeeds[i]

		content := "idle"
		if seed != "" {
			content = fileStyle.Render(truncateToWidth(seed, max(availableWidth-prefixWidth, 10)))
		}

		if m.threads > 1 {
			content = fmt.Sprintf(labelFormat, i, content)
		}

		lines = append(lines, content)
	}

	return contentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m runModel) viewResults() string {
	titleText := "ubsynth mutants"
	if m.browsing {
		titleText = "ubsynth reports"
	}

	title := screenTitle(titleText)

	if m.loadErr != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, screenError("report error: "+m.loadErr.Error()))
	}

	failed := m.countStatus(failedStatus)

	summary := screenSummary(
		"Mutants", fmt.Sprintf("%d", len(m.results)-failed),
		"Confirmed", fmt.Sprintf("%d", m.countStatus(string(model.Confirmed))),
		"Unverified", fmt.Sprintf("%d", m.countStatus(string(model.Unverified))),
		"Errors", fmt.Sprintf("%d", m.countStatus(string(model.VerifyError))),
		"Failed seeds", fmt.Sprintf("%d", failed),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		m.renderResultsBox(),
		screenFooter(m.width, "↑/k up • ↓/j down • g/G top/bottom • / filter • enter/space/click details • q quit"),
	)
}

func (m runModel) renderResultsBox() string {
	listWidth := max(m.width-4, 40)
	listHeight := max(m.height-9-m.detailBoxHeight(), 5)

	header := fmt.Sprintf("%-8s  %-11s  %-9s  %s", "ID", "Verdict", "Category", "File")
	resultsBox := m.rows.view(header, listWidth, listHeight)

	detailBox := m.renderDetailBox(listWidth)
	if detailBox == "" {
		return resultsBox
	}

	return lipgloss.JoinVertical(lipgloss.Left, resultsBox, detailBox)
}

func (m runModel) handleKeyMsg(msg tea.KeyMsg) (runModel, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	default:
		if !m.finished {
			return m, nil
		}

		if msg.String() == "enter" || msg.String() == " " {
			m.toggleSelectedDetail()
			return m, nil
		}

		cmd, moved := m.rows.update(msg)
		if moved {
			m.hideDetail()
		}

		return m, cmd
	}
}

func (m runModel) handleMouseMsg(msg tea.MouseMsg) (runModel, tea.Cmd) {
	if !m.finished {
		return m, nil
	}

	cmd, moved := m.rows.update(msg)
	if moved {
		m.hideDetail()
	}

	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease && m.rows.model.FilterState() != list.Filtering {
		m.toggleSelectedDetail()
	}

	return m, cmd
}

// hideDetail closes the detail box, which belongs to the previous row.
func (m *runModel) hideDetail() {
	m.showDetail = false
	m.selectedDetail = ""
	m.selectedTitle = ""
}

func (m *runModel) toggleSelectedDetail() {
	result, ok := m.rows.model.SelectedItem().(mutantResult)
	if !ok {
		return
	}

	detail := strings.TrimSpace(result.detail)
	if detail == "" || (m.showDetail && m.selectedDetail == detail) {
		m.hideDetail()
		return
	}

	m.showDetail = true
	m.selectedDetail = detail
	m.selectedTitle = result.file()
}

func (m runModel) detailMaxLines() int {
	return min(max(m.height/3, 6), 20)
}

func (m runModel) detailBoxHeight() int {
	if !m.showDetail || m.selectedDetail == "" {
		return 0
	}

	return min(len(strings.Split(m.selectedDetail, "\n")), m.detailMaxLines()) + 3
}

func (m runModel) renderDetailBox(width int) string {
	if !m.showDetail || m.selectedDetail == "" {
		return ""
	}

	lines := strings.Split(m.selectedDetail, "\n")
	maxLines := m.detailMaxLines()
	truncated := false

	if len(lines) > maxLines {
		lines = lines[:maxLines-1]
		truncated = true
	}

	contentWidth := max(width-4, 10)

	bodyLines := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		bodyLines = append(bodyLines, renderDetailLine(line, contentWidth))
	}

	if truncated {
		bodyLines = append(bodyLines, "…")
	}

	headerText := "Details"
	if m.selectedTitle != "" {
		headerText = "Details • " + m.selectedTitle
	}

	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Render(truncateToWidth(headerText, contentWidth))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinVertical(lipgloss.Left, bodyLines...)))
}

func renderDetailLine(line string, width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	switch {
	case strings.Contains(line, "UBFUZZ"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	case strings.Contains(line, "ERROR") || strings.Contains(line, "runtime error"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	case strings.HasPrefix(line, "seed "):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}

	return style.Render(truncateToWidth(line, width))
}

func (m runModel) handleWindowSize(msg tea.WindowSizeMsg) runModel {
	m.width = msg.Width
	m.height = msg.Height
	m.progressBar.Width = max(m.width-8, 20)

	return m
}

func (m runModel) handleTickMsg(_ tickMsg) (runModel, tea.Cmd) {
	if m.finished {
		m.rows.tick()
	}

	return m, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
