// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/progress"
	"github.com/xiaolongtang/rw/internal/quiz"
	"github.com/xiaolongtang/rw/internal/session"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	subtitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	keywordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A9BD4"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type feedback struct {
	correct   bool
	answer    string
	statement string
}

// Model implements the Bubble Tea practice UI for one unit.
type Model struct {
	language string
	unit     string
	keyboard string

	questions  []model.Question
	totalItems int

	mastered model.MasteredMap
	queue    []model.QuizItem

	progressStore *progress.Store
	recorder      *session.Recorder
	rnd           *rand.Rand

	input         textinput.Model
	feedback      *feedback
	showStatement bool

	wrongCount int
	retryCount int
	startedAt  time.Time

	completed bool
	saveErr   string

	width  int
	height int
}

// NewModel constructs a practice TUI model. The queue and mastered map
// come from the caller, which either resumed a snapshot or built a
// fresh shuffled queue.
func NewModel(language, unit, keyboard string, questions []model.Question, mastered model.MasteredMap, queue []model.QuizItem, progressStore *progress.Store, recorder *session.Recorder, rnd *rand.Rand) *Model {
	input := textinput.New()
	input.Placeholder = "missing keyword"
	input.Prompt = "> "
	input.CharLimit = 64
	input.Width = 24
	input.Focus()

	if mastered == nil {
		mastered = model.MasteredMap{}
	}
	return &Model{
		language:      language,
		unit:          unit,
		keyboard:      keyboard,
		questions:     questions,
		totalItems:    quiz.TotalItems(questions),
		mastered:      mastered,
		queue:         queue,
		progressStore: progressStore,
		recorder:      recorder,
		rnd:           rnd,
		input:         input,
		startedAt:     time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.completed {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit(false)
			return m, nil
		case tea.KeyCtrlK:
			m.submit(true)
			return m, nil
		case tea.KeyCtrlR:
			m.showStatement = !m.showStatement
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit grades the current head item. A correct answer masters the
// item permanently; a wrong answer or skip reinserts it 3-6 positions
// later. The updated snapshot is persisted before the next item is
// shown, so at most nothing is lost on a crash.
func (m *Model) submit(asSkip bool) {
	if len(m.queue) == 0 {
		return
	}
	item := m.queue[0]
	q := m.questions[item.QuestionIndex]
	hidden := q.Keywords[item.KeywordIndex]
	answer := strings.TrimSpace(m.input.Value())

	if !asSkip && answer == hidden {
		m.mastered = quiz.MarkMastered(m.mastered, item)
		m.queue = m.queue[1:]
		m.feedback = &feedback{correct: true, answer: hidden}
	} else {
		m.wrongCount++
		m.retryCount++
		m.queue = quiz.Requeue(m.queue[1:], item, m.rnd)
		m.feedback = &feedback{correct: false, answer: hidden, statement: q.Statement}
	}
	m.input.Reset()
	m.showStatement = false

	m.checkpoint()

	if len(m.queue) == 0 && m.totalItems > 0 {
		m.completed = true
		m.recordSession()
	}
}

func (m *Model) checkpoint() {
	ctx := context.Background()
	if err := m.progressStore.Save(ctx, m.language, m.unit, m.mastered, m.queue); err != nil {
		m.saveErr = fmt.Sprintf("failed to save progress: %v", err)
		return
	}
	m.saveErr = ""
}

func (m *Model) recordSession() {
	now := time.Now()
	durationSec := int((now.Sub(m.startedAt) + 500*time.Millisecond) / time.Second)
	if durationSec < 1 {
		durationSec = 1
	}
	rec := model.SessionRecord{
		Date:         now.Format(model.DateLayout),
		LanguageCode: m.language,
		UnitName:     m.unit,
		StartedAt:    m.startedAt.UnixMilli(),
		FinishedAt:   now.UnixMilli(),
		DurationSec:  durationSec,
		TotalItems:   m.totalItems,
		WrongCount:   m.wrongCount,
		RetryCount:   m.retryCount,
	}
	ctx := context.Background()
	if _, err := m.recorder.Record(ctx, rec); err != nil {
		logErrf("failed to record session: %v\n", err)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.completed {
		return m.viewCompleted()
	}
	if len(m.queue) == 0 {
		return subtitleStyle.Render("Nothing to practice in this unit.") + "\n"
	}

	item := m.queue[0]
	q := m.questions[item.QuestionIndex]

	contentWidth := m.width
	if contentWidth <= 0 {
		contentWidth = 72
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.unit))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Language %s · Keyboard %s", m.language, m.keyboard)))
	b.WriteString("\n\n")

	masteredCount := quiz.MasteredCount(m.mastered)
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Mastered %d/%d · Remaining %d", masteredCount, m.totalItems, len(m.queue))))
	b.WriteString("\n\n")

	b.WriteString(wrapText(q.Translate, contentWidth))
	b.WriteString("\n\n")

	b.WriteString(m.renderKeywordRow(q, item))
	b.WriteString("\n")

	if m.showStatement {
		b.WriteString("\n")
		b.WriteString(statementStyle.Render(wrapText(q.Statement, contentWidth)))
		b.WriteString("\n")
	}
	if m.feedback != nil {
		b.WriteString("\n")
		b.WriteString(m.renderFeedback(contentWidth))
		b.WriteString("\n")
	}
	if m.saveErr != "" {
		b.WriteString("\n")
		b.WriteString(wrongStyle.Render(m.saveErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("enter submit · ctrl+k skip · ctrl+r statement · ctrl+c quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderKeywordRow(q model.Question, item model.QuizItem) string {
	parts := make([]string, 0, len(q.Keywords))
	for idx, kw := range q.Keywords {
		if idx == item.KeywordIndex {
			parts = append(parts, m.input.View())
			continue
		}
		parts = append(parts, keywordStyle.Render("["+kw+"]"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderFeedback(width int) string {
	if m.feedback.correct {
		return correctStyle.Render("Correct: " + m.feedback.answer)
	}
	lines := []string{wrongStyle.Render("Wrong, the keyword was: " + m.feedback.answer)}
	if m.feedback.statement != "" {
		lines = append(lines, statementStyle.Render(wrapText(m.feedback.statement, width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewCompleted() string {
	var b strings.Builder
	b.WriteString(correctStyle.Render("Unit complete!"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s/%s · %d item(s) mastered · %d wrong answer(s)",
		m.language, m.unit, m.totalItems, m.wrongCount)))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("press any key to exit"))
	b.WriteString("\n")
	return b.String()
}

// Completed reports whether the unit was finished during this run.
func (m *Model) Completed() bool {
	return m.completed
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
