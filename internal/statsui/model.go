// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/session"
	"github.com/xiaolongtang/rw/internal/stats"
)

const (
	tabOverview = iota
	tabCalendar
	tabRecent
)

const recentTableRows = 12

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	recorder *session.Recorder

	sessions []model.SessionRecord
	summary  stats.Summary
	errMsg   string

	tabs      []string
	activeTab int

	calendarMonth time.Time

	recentTable table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model and loads the session log.
func NewModel(recorder *session.Recorder) *Model {
	m := &Model{
		recorder:      recorder,
		tabs:          []string{"Overview", "Calendar", "Recent"},
		calendarMonth: time.Now(),
	}
	m.initRecentTable()
	m.refresh()
	return m
}

func (m *Model) initRecentTable() {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Language", Width: 8},
		{Title: "Unit", Width: 20},
		{Title: "Duration", Width: 8},
		{Title: "Wrong", Width: 5},
		{Title: "Retries", Width: 7},
	}
	m.recentTable = table.New(
		table.WithColumns(columns),
		table.WithHeight(recentTableRows),
		table.WithFocused(true),
	)
}

func (m *Model) refresh() {
	ctx := context.Background()
	sessions, err := m.recorder.List(ctx)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load sessions: %v", err)
		return
	}
	m.errMsg = ""
	m.sessions = sessions
	m.summary = stats.BuildSummary(sessions, time.Now())

	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, table.Row{
			s.Date,
			s.LanguageCode,
			s.UnitName,
			fmt.Sprintf("%ds", s.DurationSec),
			fmt.Sprintf("%d", s.WrongCount),
			fmt.Sprintf("%d", s.RetryCount),
		})
	}
	m.recentTable.SetRows(rows)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left", "h":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "[":
			if m.activeTab == tabCalendar {
				m.calendarMonth = m.calendarMonth.AddDate(0, -1, 0)
				return m, nil
			}
		case "]":
			if m.activeTab == tabCalendar {
				m.calendarMonth = m.calendarMonth.AddDate(0, 1, 0)
				return m, nil
			}
		}
		if m.activeTab == tabRecent {
			var cmd tea.Cmd
			m.recentTable, cmd = m.recentTable.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderNav())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	switch m.activeTab {
	case tabOverview:
		b.WriteString(m.renderOverview())
	case tabCalendar:
		b.WriteString(m.renderCalendar())
	case tabRecent:
		b.WriteString(m.recentTable.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("tab switch · [ ] month · r reload · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderNav() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderOverview() string {
	cards := []struct {
		title string
		value string
	}{
		{"Today", fmt.Sprintf("%d session(s)", m.summary.TodayCount)},
		{"Streak", fmt.Sprintf("%d day(s)", m.summary.Streak)},
		{"Completed", fmt.Sprintf("%d unit(s)", m.summary.TotalSessions)},
		{"Practice time", fmt.Sprintf("%.1f min", float64(m.summary.TotalDurationSec)/60)},
	}
	rendered := make([]string, 0, len(cards))
	for _, card := range cards {
		content := cardTitleStyle.Render(card.title) + "\n" + cardValueStyle.Render(card.value)
		rendered = append(rendered, cardStyle.Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m *Model) renderCalendar() string {
	counts := stats.DayCounts(m.sessions)
	return stats.RenderMonth(m.calendarMonth.Year(), m.calendarMonth.Month(), counts, true)
}
