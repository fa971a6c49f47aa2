package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name        string
	Base        lipgloss.Style
	Border      lipgloss.Color
	Header      lipgloss.Style
	Sprint      lipgloss.Style
	Issue       lipgloss.Style
	ClosedIssue lipgloss.Style
	InProgress  lipgloss.Style
	Planned     lipgloss.Style
	Completed   lipgloss.Style
	Cancelled   lipgloss.Style
	Focused     lipgloss.Style
	Dim         lipgloss.Style
	Error       lipgloss.Style
}

var Themes = map[string]Theme{
	"default": {
		Name:        "Default",
		Base:        lipgloss.NewStyle().Margin(1, 2),
		Border:      lipgloss.Color("63"),
		Header:      lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Sprint:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Issue:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		ClosedIssue: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
		InProgress:  lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		Planned:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Completed:   lipgloss.NewStyle().Foreground(lipgloss.Color("120")),
		Cancelled:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Focused:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	},
	"dracula": {
		Name:        "Dracula",
		Base:        lipgloss.NewStyle().Margin(1, 2),
		Border:      lipgloss.Color("62"),
		Header:      lipgloss.NewStyle().Foreground(lipgloss.Color("50")).Bold(true),
		Sprint:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Issue:       lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ClosedIssue: lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Strikethrough(true),
		InProgress:  lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		Planned:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Completed:   lipgloss.NewStyle().Foreground(lipgloss.Color("120")),
		Cancelled:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Focused:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("210")).Bold(true),
	},
}

// CurrentTheme is the active theme. Initialized to default so rendering
// never sees a zero Theme.
var CurrentTheme = Themes["default"]

func SetTheme(name string) {
	if t, ok := Themes[name]; ok {
		CurrentTheme = t
	}
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return CurrentTheme.InProgress
	case "completed":
		return CurrentTheme.Completed
	case "cancelled":
		return CurrentTheme.Cancelled
	default:
		return CurrentTheme.Planned
	}
}
