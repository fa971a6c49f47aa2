package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	t := CurrentTheme
	switch m.state {
	case stateLoading:
		return t.Base.Render("Loading sprints...")
	case stateError:
		return t.Base.Render(t.Error.Render("Error: ") + m.err.Error() + "\n\n" + t.Dim.Render("r: retry  q: quit"))
	}

	header := t.Header.Render(fmt.Sprintf("Sprint Board: %s/%s", m.store.Owner(), m.store.Repo()))
	if len(m.sprints) == 0 {
		return t.Base.Render(header + "\n\nNo sprints yet.\n\n" + m.footer())
	}

	left := m.renderSprintList()
	right := m.renderIssuePane()
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return t.Base.Render(header + "\n\n" + panes + "\n\n" + m.footer())
}

func (m Model) renderSprintList() string {
	t := CurrentTheme
	var b strings.Builder
	for i, row := range m.sprints {
		sp := row.Sprint
		marker := "  "
		line := fmt.Sprintf("Sprint %-3d %-12s %2d issues", sp.Number, sp.Status, row.IssueCount)
		if sp.StartDate != nil {
			line += "  " + t.Dim.Render(*sp.StartDate)
		}
		if i == m.cursor {
			marker = "> "
			b.WriteString(t.Focused.Render(marker + line))
		} else {
			b.WriteString(marker + statusStyle(string(sp.Status)).Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderIssuePane() string {
	t := CurrentTheme
	sp := m.sprints[m.cursor].Sprint
	title := t.Header.Render(fmt.Sprintf("Sprint %d", sp.Number))
	if sp.Goal != "" {
		title += "\n" + t.Dim.Render(sp.Goal)
	}

	if m.loaded != sp.Number {
		return title + "\n\n" + t.Dim.Render("loading issues...")
	}
	if len(m.issues) == 0 {
		return title + "\n\n" + t.Dim.Render("no issues assigned")
	}

	var b strings.Builder
	total, done, closed := 0, 0, 0
	for _, iss := range m.issues {
		box := "[ ]"
		style := t.Issue
		if iss.Closed {
			box = "[x]"
			style = t.ClosedIssue
			closed++
			done += iss.Points
		}
		total += iss.Points
		line := fmt.Sprintf("%s #%d", box, iss.Number)
		if iss.Title != "" {
			line += " " + iss.Title
		}
		if iss.Points > 0 {
			line += t.Dim.Render(fmt.Sprintf(" (%dp)", iss.Points))
		}
		b.WriteString(style.Render(line) + "\n")
	}

	out := title + "\n\n" + strings.TrimRight(b.String(), "\n")
	if m.reader != nil && len(m.issues) > 0 {
		ratio := float64(closed) / float64(len(m.issues))
		out += "\n\n" + m.progress.ViewAs(ratio)
		out += "\n" + t.Dim.Render(fmt.Sprintf("%d/%d closed, %d/%d points", closed, len(m.issues), done, total))
	}
	return out
}

func (m Model) footer() string {
	return CurrentTheme.Dim.Render("j/k: select sprint  r: refresh  q: quit")
}
