package models

import "time"

// SprintStatus enumerates the lifecycle states of a sprint.
type SprintStatus string

const (
	StatusPlanned    SprintStatus = "planned"
	StatusInProgress SprintStatus = "in_progress"
	StatusCompleted  SprintStatus = "completed"
	StatusCancelled  SprintStatus = "cancelled"
)

// IsFrozen reports whether the status is terminal. Frozen sprints reject
// all field and membership mutation.
func (s SprintStatus) IsFrozen() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether the status is one of the four known states.
func (s SprintStatus) IsValid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// AssignmentSource records how an issue ended up in a sprint.
type AssignmentSource string

const (
	SourceManual    AssignmentSource = "manual"
	SourceRollover  AssignmentSource = "rollover"
	SourceMigration AssignmentSource = "migration"
)

// SnapshotType distinguishes the two captures taken per sprint.
type SnapshotType string

const (
	SnapshotStart SnapshotType = "start"
	SnapshotEnd   SnapshotType = "end"
)

// Sprint is a numbered, repo-scoped container for work.
type Sprint struct {
	ID        int64        `json:"id"`
	RepoOwner string       `json:"repo_owner"`
	RepoName  string       `json:"repo_name"`
	Number    int          `json:"number"`
	Status    SprintStatus `json:"status"`
	StartDate *string      `json:"start_date"` // YYYY-MM-DD, nil until started
	EndDate   *string      `json:"end_date"`
	Goal      string       `json:"goal"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IssueAssignment is one row of the membership ledger. Removal is a
// soft-delete: RemovedAt is set, the row stays.
type IssueAssignment struct {
	ID          int64            `json:"id"`
	SprintID    int64            `json:"sprint_id"`
	IssueNumber int              `json:"issue_number"`
	AddedAt     string           `json:"added_at"`
	RemovedAt   *string          `json:"removed_at"`
	Source      AssignmentSource `json:"source"`
}

// Active reports whether the assignment has not been removed.
func (a IssueAssignment) Active() bool { return a.RemovedAt == nil }

// Snapshot is a point-in-time capture of a sprint's composition.
type Snapshot struct {
	ID           int64        `json:"id"`
	SprintID     int64        `json:"sprint_id"`
	Type         SnapshotType `json:"snapshot_type"`
	CapturedAt   time.Time    `json:"captured_at"`
	TotalIssues  int          `json:"total_issues"`
	TotalPoints  int          `json:"total_points"`
	IssueNumbers []int        `json:"issue_numbers"`
}
