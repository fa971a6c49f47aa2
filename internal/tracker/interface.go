package tracker

import "context"

// IssueReader is the read surface consumed by the server, seeder, and
// report generator. *Client implements it.
//
//go:generate mockgen -source=interface.go -destination=mock_client.go -package=tracker
type IssueReader interface {
	ListIssues(ctx context.Context, state string) ([]Issue, error)
	GetIssue(ctx context.Context, number int) (*Issue, error)
	Milestones(ctx context.Context, state string) ([]Milestone, error)
}

var _ IssueReader = (*Client)(nil)
