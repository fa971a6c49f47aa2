package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sprintdash/internal/models"
)

// Dump is a flat copy of every table, used for backup archives.
type Dump struct {
	ExportedAt    time.Time                `json:"exported_at"`
	SchemaVersion int                      `json:"schema_version"`
	Sprints       []models.Sprint          `json:"sprints"`
	Assignments   []models.IssueAssignment `json:"assignments"`
	Snapshots     []models.Snapshot        `json:"snapshots"`
}

// Dump reads the entire database into memory. Not scoped to a repo: a
// backup covers everything the file holds.
func (d *Database) Dump(ctx context.Context) (*Dump, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	out := &Dump{
		ExportedAt:    time.Now().UTC(),
		SchemaVersion: currentSchemaVersion,
	}

	rows, err := d.DB.QueryContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints ORDER BY repo_owner, repo_name, number`)
	if err != nil {
		return nil, fmt.Errorf("dump sprints: %w", err)
	}
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("dump sprints: %w", err)
		}
		out.Sprints = append(out.Sprints, *sp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dump sprints: %w", err)
	}

	rows, err = d.DB.QueryContext(ctx,
		`SELECT id, sprint_id, issue_number, added_at, removed_at, source
		 FROM sprint_issues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump assignments: %w", err)
	}
	for rows.Next() {
		var a models.IssueAssignment
		if err := rows.Scan(&a.ID, &a.SprintID, &a.IssueNumber, &a.AddedAt, &a.RemovedAt, &a.Source); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dump assignments: %w", err)
		}
		out.Assignments = append(out.Assignments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dump assignments: %w", err)
	}

	rows, err = d.DB.QueryContext(ctx,
		`SELECT id, sprint_id, snapshot_type, captured_at, total_issues, total_points, issue_numbers
		 FROM sprint_snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump snapshots: %w", err)
	}
	for rows.Next() {
		var snap models.Snapshot
		var raw string
		if err := rows.Scan(&snap.ID, &snap.SprintID, &snap.Type, &snap.CapturedAt,
			&snap.TotalIssues, &snap.TotalPoints, &raw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dump snapshots: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &snap.IssueNumbers); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dump snapshots: %w", err)
		}
		out.Snapshots = append(out.Snapshots, snap)
	}
	rows.Close()
	return out, rows.Err()
}
