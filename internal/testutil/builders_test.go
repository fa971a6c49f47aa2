package testutil

import (
	"testing"
	"time"
)

func TestIssueBuilderDefaults(t *testing.T) {
	issue := NewIssue(42).Build()

	if issue.Number != 42 {
		t.Errorf("Number = %d, want 42", issue.Number)
	}
	if issue.State != "open" {
		t.Errorf("State = %q, want open", issue.State)
	}
	if issue.Title != "Test issue 42" {
		t.Errorf("Title = %q", issue.Title)
	}
	if _, err := time.Parse(time.RFC3339, issue.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not RFC3339: %v", issue.CreatedAt, err)
	}
}

func TestIssueBuilderLabels(t *testing.T) {
	issue := NewIssue(7).InSprint(3).WithSize("M").Closed().Build()

	if issue.SprintNumber() != 3 {
		t.Errorf("SprintNumber = %d, want 3", issue.SprintNumber())
	}
	if issue.Points() != 3 {
		t.Errorf("Points = %d, want 3", issue.Points())
	}
	if !issue.IsClosed() {
		t.Error("expected closed issue")
	}
}

func TestMilestoneBuilder(t *testing.T) {
	m := NewMilestone(5).WithStartDate("2026-01-05").Closed().Build()

	if m.SprintNumber() != 5 {
		t.Errorf("SprintNumber = %d, want 5", m.SprintNumber())
	}
	if m.StartDate() != "2026-01-05" {
		t.Errorf("StartDate = %q", m.StartDate())
	}
	if m.LifecycleState(time.Now()) != "completed" {
		t.Errorf("LifecycleState = %q, want completed", m.LifecycleState(time.Now()))
	}
}
