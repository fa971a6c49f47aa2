package database

import (
	"context"

	"sprintdash/internal/models"
)

// SprintRepository defines sprint CRUD and lifecycle operations.
type SprintRepository interface {
	CreateSprint(ctx context.Context, number int, startDate, endDate, goal string) (*models.Sprint, error)
	GetSprint(ctx context.Context, number int) (*models.Sprint, error)
	ListSprints(ctx context.Context, status models.SprintStatus) ([]models.Sprint, error)
	CurrentSprintNumber(ctx context.Context) (int, error)
	UpdateSprint(ctx context.Context, number int, upd SprintUpdate) (*models.Sprint, error)
	StartSprint(ctx context.Context, number int, startDate string) (*StartResult, error)
	CloseSprint(ctx context.Context, req CloseRequest) (*CloseResult, error)
	CancelSprint(ctx context.Context, number int) (*CancelResult, error)
	InsertHistoricalSprint(ctx context.Context, seed SprintSeed) (*models.Sprint, error)
}

// IssueRepository defines the issue-membership ledger operations.
type IssueRepository interface {
	AddIssue(ctx context.Context, sprintNumber, issueNumber int, source models.AssignmentSource) error
	RemoveIssue(ctx context.Context, sprintNumber, issueNumber int) error
	MoveIssue(ctx context.Context, issueNumber, fromSprint, toSprint int) error
	CarryOver(ctx context.Context, fromSprint, toSprint int, issueNumbers []int) ([]int, error)
	IssueNumbers(ctx context.Context, sprintNumber int) ([]int, error)
	AllAssignedNumbers(ctx context.Context) (map[int]bool, error)
	Assignments(ctx context.Context, sprintNumber int) ([]models.IssueAssignment, error)
}

// SnapshotRepository defines snapshot capture and retrieval.
type SnapshotRepository interface {
	TakeSnapshot(ctx context.Context, sprintNumber int, typ models.SnapshotType, totalIssues, totalPoints int, issueNumbers []int) error
	GetSnapshot(ctx context.Context, sprintNumber int, typ models.SnapshotType) (*models.Snapshot, error)
}

// Repository combines all repository interfaces.
//
//go:generate mockgen -source=interface.go -destination=mock_repository_test.go -package=database
type Repository interface {
	SprintRepository
	IssueRepository
	SnapshotRepository
}

var _ Repository = (*Store)(nil)
