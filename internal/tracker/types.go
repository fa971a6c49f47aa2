// Package tracker talks to the Gitea issue tracker. Sprint membership
// conventions live on issues as labels (sprint/N, size/S, epic/name) and on
// milestones titled "Sprint N".
package tracker

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"sprintdash/internal/config"
)

var (
	sprintLabelRe = regexp.MustCompile(`^sprint/(\d+)$`)
	priorityRe    = regexp.MustCompile(`^P([1-3])$`)
	milestoneRe   = regexp.MustCompile(`^Sprint (\d+)`)
	effortRe      = regexp.MustCompile(`(?i)(?:##\s*Effort[:\s]*|\*\*Effort:?\*\*[:\s]*)(XL|[SML])\b`)
)

var issueTypes = map[string]bool{
	"bug": true, "feature": true, "tech-debt": true,
	"chore": true, "docs": true, "hotfix": true,
}

// Issue is a Gitea issue with its labels.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Labels    []string `json:"labels"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	ClosedAt  string   `json:"closed_at,omitempty"`
}

// SprintNumber extracts the sprint from a sprint/N label, or 0 when the
// issue is unassigned (backlog).
func (i Issue) SprintNumber() int {
	for _, l := range i.Labels {
		if m := sprintLabelRe.FindStringSubmatch(l); m != nil {
			return atoi(m[1])
		}
	}
	return 0
}

// Size returns the effort size from a size/X label, falling back to an
// "## Effort:" marker in the body. Empty when unsized.
func (i Issue) Size() string {
	for _, l := range i.Labels {
		if rest, ok := strings.CutPrefix(l, "size/"); ok {
			return strings.ToUpper(rest)
		}
	}
	if m := effortRe.FindStringSubmatch(i.Body); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// Points maps the issue's size to story points; unsized issues score zero.
func (i Issue) Points() int {
	return config.SizePoints[i.Size()]
}

// Priority returns 1..3 from a P1..P3 label, or 0 when unlabelled.
func (i Issue) Priority() int {
	for _, l := range i.Labels {
		if m := priorityRe.FindStringSubmatch(l); m != nil {
			return atoi(m[1])
		}
	}
	return 0
}

// Epic returns the epic name from an epic/name label.
func (i Issue) Epic() string {
	for _, l := range i.Labels {
		if rest, ok := strings.CutPrefix(l, "epic/"); ok {
			return rest
		}
	}
	return ""
}

// Type infers the issue type from its labels.
func (i Issue) Type() string {
	for _, l := range i.Labels {
		if issueTypes[l] {
			return l
		}
	}
	return "unknown"
}

// IsClosed reports whether the issue is closed.
func (i Issue) IsClosed() bool { return i.State == "closed" }

// Milestone is a Gitea milestone used for sprint lifecycle tracking.
type Milestone struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	State        string `json:"state"`
	Description  string `json:"description"`
	OpenIssues   int    `json:"open_issues"`
	ClosedIssues int    `json:"closed_issues"`
}

// SprintNumber extracts N from a "Sprint N" title, or 0 for unrelated
// milestones.
func (m Milestone) SprintNumber() int {
	if match := milestoneRe.FindStringSubmatch(m.Title); match != nil {
		return atoi(match[1])
	}
	return 0
}

// StartDate parses a "start_date: YYYY-MM-DD" marker on the first line of
// the description. Empty when absent or malformed.
func (m Milestone) StartDate() string {
	desc := strings.TrimSpace(m.Description)
	if desc == "" {
		return ""
	}
	first, _, _ := strings.Cut(desc, "\n")
	value, ok := strings.CutPrefix(first, "start_date:")
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return ""
	}
	return value
}

// LifecycleState derives the sprint status this milestone represents:
// closed milestones are completed, open ones with a reached start date are
// in_progress, the rest are planned.
func (m Milestone) LifecycleState(today time.Time) string {
	if m.State == "closed" {
		return "completed"
	}
	if start := m.StartDate(); start != "" && start <= today.Format("2006-01-02") {
		return "in_progress"
	}
	return "planned"
}

// atoi for regexp-matched digit strings.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
