// Package tui renders an interactive sprint board in the terminal.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"sprintdash/internal/database"
	"sprintdash/internal/models"
	"sprintdash/internal/tracker"
)

type sessionState int

const (
	stateLoading sessionState = iota
	stateReady
	stateError
)

type sprintRow struct {
	Sprint     models.Sprint
	IssueCount int
}

type issueRow struct {
	Number int
	Title  string
	Closed bool
	Points int
}

// Model is the root bubbletea model for the sprint board. The tracker
// reader is optional; without it issues render by number only.
type Model struct {
	store  *database.Store
	reader tracker.IssueReader

	state   sessionState
	err     error
	sprints []sprintRow
	cursor  int
	issues  []issueRow
	loaded  int // sprint number the issue pane currently shows

	progress progress.Model
	width    int
	height   int
}

func NewModel(store *database.Store, reader tracker.IssueReader) Model {
	return Model{
		store:    store,
		reader:   reader,
		state:    stateLoading,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Run blocks until the user quits the board.
func Run(store *database.Store, reader tracker.IssueReader) error {
	p := tea.NewProgram(NewModel(store, reader), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadSprints()
}

type sprintsMsg []sprintRow

type issuesMsg struct {
	number int
	rows   []issueRow
}

type errMsg struct{ err error }

func (m Model) loadSprints() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx := context.Background()
		sprints, err := store.ListSprints(ctx, "")
		if err != nil {
			return errMsg{err}
		}
		rows := make([]sprintRow, 0, len(sprints))
		for _, sp := range sprints {
			nums, err := store.IssueNumbers(ctx, sp.Number)
			if err != nil {
				return errMsg{err}
			}
			rows = append(rows, sprintRow{Sprint: sp, IssueCount: len(nums)})
		}
		return sprintsMsg(rows)
	}
}

func (m Model) loadIssues(number int) tea.Cmd {
	store, reader := m.store, m.reader
	return func() tea.Msg {
		ctx := context.Background()
		nums, err := store.IssueNumbers(ctx, number)
		if err != nil {
			return errMsg{err}
		}
		details := make(map[int]tracker.Issue)
		if reader != nil {
			if all, err := reader.ListIssues(ctx, "all"); err == nil {
				for _, iss := range all {
					details[iss.Number] = iss
				}
			}
		}
		rows := make([]issueRow, 0, len(nums))
		for _, n := range nums {
			row := issueRow{Number: n}
			if iss, ok := details[n]; ok {
				row.Title = iss.Title
				row.Closed = iss.IsClosed()
				row.Points = iss.Points()
			}
			rows = append(rows, row)
		}
		return issuesMsg{number: number, rows: rows}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width/2, 40)
		return m, nil

	case sprintsMsg:
		m.sprints = msg
		m.state = stateReady
		if m.cursor >= len(m.sprints) {
			m.cursor = 0
		}
		if len(m.sprints) > 0 {
			return m, m.loadIssues(m.sprints[m.cursor].Sprint.Number)
		}
		m.issues = nil
		m.loaded = 0
		return m, nil

	case issuesMsg:
		// Stale responses from earlier cursor positions are dropped.
		if len(m.sprints) > 0 && m.sprints[m.cursor].Sprint.Number == msg.number {
			m.issues = msg.rows
			m.loaded = msg.number
		}
		return m, nil

	case errMsg:
		m.state = stateError
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		m.state = stateLoading
		return m, m.loadSprints()
	case "j", "down":
		if m.cursor < len(m.sprints)-1 {
			m.cursor++
			return m, m.loadIssues(m.sprints[m.cursor].Sprint.Number)
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			return m, m.loadIssues(m.sprints[m.cursor].Sprint.Number)
		}
	case "g", "home":
		if len(m.sprints) > 0 && m.cursor != 0 {
			m.cursor = 0
			return m, m.loadIssues(m.sprints[0].Sprint.Number)
		}
	case "G", "end":
		if last := len(m.sprints) - 1; last >= 0 && m.cursor != last {
			m.cursor = last
			return m, m.loadIssues(m.sprints[last].Sprint.Number)
		}
	}
	return m, nil
}
