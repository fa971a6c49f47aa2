// Package testutil provides fluent builders for test fixtures.
package testutil

import (
	"fmt"
	"time"

	"sprintdash/internal/tracker"
)

// IssueBuilder provides a fluent API for creating tracker issues in tests.
type IssueBuilder struct {
	issue tracker.Issue
}

func NewIssue(number int) *IssueBuilder {
	return &IssueBuilder{
		issue: tracker.Issue{
			Number:    number,
			Title:     fmt.Sprintf("Test issue %d", number),
			State:     "open",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

func (b *IssueBuilder) WithTitle(title string) *IssueBuilder {
	b.issue.Title = title
	return b
}

func (b *IssueBuilder) Closed() *IssueBuilder {
	b.issue.State = "closed"
	return b
}

func (b *IssueBuilder) WithLabels(labels ...string) *IssueBuilder {
	b.issue.Labels = append(b.issue.Labels, labels...)
	return b
}

// InSprint attaches the sprint/N membership label.
func (b *IssueBuilder) InSprint(number int) *IssueBuilder {
	return b.WithLabels(fmt.Sprintf("sprint/%d", number))
}

// WithSize attaches a size label (S, M, L, XL).
func (b *IssueBuilder) WithSize(size string) *IssueBuilder {
	return b.WithLabels("size/" + size)
}

func (b *IssueBuilder) Build() tracker.Issue {
	return b.issue
}

// MilestoneBuilder provides a fluent API for creating tracker milestones.
type MilestoneBuilder struct {
	milestone tracker.Milestone
}

func NewMilestone(number int) *MilestoneBuilder {
	return &MilestoneBuilder{
		milestone: tracker.Milestone{
			ID:    int64(number),
			Title: fmt.Sprintf("Sprint %d", number),
			State: "open",
		},
	}
}

func (b *MilestoneBuilder) Closed() *MilestoneBuilder {
	b.milestone.State = "closed"
	return b
}

// WithStartDate sets the description's start_date line.
func (b *MilestoneBuilder) WithStartDate(date string) *MilestoneBuilder {
	b.milestone.Description = "start_date: " + date
	return b
}

func (b *MilestoneBuilder) WithDescription(desc string) *MilestoneBuilder {
	b.milestone.Description = desc
	return b
}

func (b *MilestoneBuilder) Build() tracker.Milestone {
	return b.milestone
}
