package controller

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tickMsg time.Time

const accentColor = lipgloss.Color("6")

// fitFunc shortens text to width.
type fitFunc func(text string, width int) string

// rowFunc renders one list item on a line of the given width. The last
// column goes through fit, which scrolls it on the selected row.
type rowFunc func(item list.Item, selected bool, width int, fit fitFunc) (string, bool)

// scrollDelegate draws single-line rows and scrolls the selected one.
type scrollDelegate struct {
	offset int
	row    rowFunc
}

func (d scrollDelegate) Height() int  { return 1 }
func (d scrollDelegate) Spacing() int { return 0 }
func (d scrollDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d scrollDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	selected := index == m.Index()

	fit := fitFunc(truncateToWidth)
	if selected {
		fit = func(text string, width int) string {
			return animateScroll(text, width, d.offset)
		}
	}

	line, ok := d.row(item, selected, m.Width(), fit)
	if !ok {
		return
	}

	_, _ = fmt.Fprint(w, line)
}

// scrollList is a filterable list whose selected row scrolls when it does
// not fit. Moving the selection restarts the animation.
type scrollList struct {
	model        list.Model
	delegate     scrollDelegate
	animOffset   int
	lastSelected int
}

func newScrollList(row rowFunc, placeholder string) scrollList {
	delegate := scrollDelegate{row: row}

	model := list.New([]list.Item{}, delegate, 80, 20)
	model.SetShowPagination(false)
	model.SetShowFilter(true)
	model.SetShowHelp(false)
	model.SetShowTitle(false)
	model.SetShowStatusBar(false)
	model.FilterInput.Placeholder = placeholder

	return scrollList{model: model, delegate: delegate, lastSelected: -1}
}

func (s *scrollList) setItems(items []list.Item) {
	s.model.SetItems(items)

	if len(items) > 0 && s.lastSelected == -1 {
		s.lastSelected = 0
	}
}

func (s *scrollList) setOffset(offset int) {
	s.animOffset = offset
	s.delegate.offset = offset
	s.model.SetDelegate(s.delegate)
}

// tick advances the scroll animation unless a filter is being typed.
func (s *scrollList) tick() bool {
	if s.model.FilterState() == list.Filtering {
		return false
	}

	s.setOffset(s.animOffset + 1)

	return true
}

// update forwards msg to the list and reports whether the selection moved.
func (s *scrollList) update(msg tea.Msg) (tea.Cmd, bool) {
	var cmd tea.Cmd

	s.model, cmd = s.model.Update(msg)

	if s.model.Index() == s.lastSelected {
		return cmd, false
	}

	s.lastSelected = s.model.Index()
	s.setOffset(0)

	return cmd, true
}

// view renders the list under a column header inside a rounded box.
func (s scrollList) view(header string, width, height int) string {
	s.model.SetWidth(width)
	s.model.SetHeight(height)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(width)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(header), s.model.View()))
}

func selectedRowStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(accentColor).
		Bold(true)
}

func screenTitle(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2).
		Render(text)
}

// screenSummary renders label/value pairs separated by bullets.
func screenSummary(pairs ...string) string {
	accent := lipgloss.NewStyle().Foreground(accentColor)

	line := ""

	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			line += "  •  "
		}

		line += pairs[i] + ": " + accent.Render(pairs[i+1])
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2).
		Render(line)
}

func screenError(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Padding(0, 0, 1, 2).Render(text)
}

func screenFooter(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(width).
		Render(text)
}

func animateScroll(text string, width int, offset int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	const pause = 5 // ticks before scrolling starts

	if offset < pause {
		return truncateToWidth(text, width)
	}

	runes := []rune(text + "   ")
	n := len(runes)
	start := (offset - pause) % n

	res := make([]rune, 0, width)
	for i := range width {
		res = append(res, runes[(start+i)%n])
	}

	return string(res)
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	const ellipsis = "…"

	maxWidth := width - lipgloss.Width(ellipsis)
	if maxWidth <= 0 {
		return ellipsis
	}

	currentWidth := 0

	result := make([]rune, 0, len(text))
	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > maxWidth {
			break
		}

		result = append(result, r)
		currentWidth += rWidth
	}

	return string(result) + ellipsis
}
