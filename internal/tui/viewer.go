package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// candidateItem represents one leak candidate in the list
type candidateItem struct {
	candidate analyzer.LeakCandidate
}

func (i candidateItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.candidate.Severity, i.candidate.Category, i.candidate.ClassName)
}

func (i candidateItem) Title() string {
	return analyzer.Truncate(fmt.Sprintf("[%s] %s", i.candidate.Severity, i.candidate.ClassName), 60)
}

func (i candidateItem) Description() string {
	return fmt.Sprintf("%s · size %s · retained %s",
		i.candidate.Category,
		analyzer.FormatBytes(i.candidate.Size),
		analyzer.FormatBytes(i.candidate.RetainedSize))
}

// Model is the interactive candidate browser.
type Model struct {
	analysis   *analyzer.Analysis
	list       list.Model
	showDetail bool
	width      int
	height     int
}

// NewModel builds a viewer for a.
func NewModel(a *analyzer.Analysis) *Model {
	items := make([]list.Item, len(a.Candidates))
	for i, c := range a.Candidates {
		items[i] = candidateItem{candidate: c}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Leak candidates"
	l.SetShowStatusBar(false)
	return &Model{analysis: a, list: l}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-4, 1))
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		case "esc":
			if m.showDetail {
				m.showDetail = false
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted candidate, if any.
func (m *Model) Selected() (analyzer.LeakCandidate, bool) {
	item, ok := m.list.SelectedItem().(candidateItem)
	if !ok {
		return analyzer.LeakCandidate{}, false
	}
	return item.candidate, true
}

func (m *Model) View() string {
	header := HeaderStyle.Width(m.width).Render(fmt.Sprintf("🔍 %s → %s", m.analysis.BaselineSource, m.analysis.CurrentSource))

	body := m.list.View()
	if m.showDetail {
		body = m.detailView()
	}

	status := fmt.Sprintf("growth %s (%.2f%%) · %d candidates · enter: details · q: quit",
		analyzer.FormatBytes(m.analysis.GrowthBytes), m.analysis.GrowthPercentage, len(m.analysis.Candidates))
	statusView := StatusBarStyle.Width(m.width).Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusView)
}

func (m *Model) detailView() string {
	c, ok := m.Selected()
	if !ok {
		return MutedStyle.Render("No candidate selected")
	}

	lines := []string{
		SeverityStyle(c.Severity).Render(strings.ToUpper(string(c.Severity))) + " " + TitleStyle.Render(c.ClassName),
		"",
		c.Description,
		fmt.Sprintf("Category:       %s", c.Category),
		fmt.Sprintf("Count:          %d", c.Count),
		fmt.Sprintf("Estimated size: %s", analyzer.FormatBytes(c.Size)),
		fmt.Sprintf("Retained size:  %s (approximate)", analyzer.FormatBytes(c.RetainedSize)),
	}
	for _, t := range m.analysis.Traces {
		if t.ClassName != c.ClassName {
			continue
		}
		names := make([]string, len(t.Path))
		for i, hop := range t.Path {
			names[i] = hop.Name
		}
		lines = append(lines, "", fmt.Sprintf("Retention path (p=%.1f): %s", t.LeakProbability, strings.Join(names, " → ")))
		break
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// Run opens the interactive viewer until the user quits.
func Run(a *analyzer.Analysis) error {
	p := tea.NewProgram(NewModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
