package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"sprintdash/internal/models"
)

// TakeSnapshot captures (or re-captures) a snapshot of the given type for a
// sprint. Re-taking replaces the previous capture of the same type.
func (s *Store) TakeSnapshot(ctx context.Context, sprintNumber int, typ models.SnapshotType, totalIssues, totalPoints int, issueNumbers []int) error {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	sp, err := s.getSprint(ctx, s.db.DB, sprintNumber)
	if err != nil {
		return wrapOpErr("snapshot", sprintNumber, err)
	}
	err = upsertSnapshot(ctx, s.db.DB, sp.ID, typ, totalIssues, totalPoints, issueNumbers)
	return wrapOpErr("snapshot", sprintNumber, err)
}

// GetSnapshot returns the snapshot of the given type, or ErrNotFound when
// it has not been taken.
func (s *Store) GetSnapshot(ctx context.Context, sprintNumber int, typ models.SnapshotType) (*models.Snapshot, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	sp, err := s.getSprint(ctx, s.db.DB, sprintNumber)
	if err != nil {
		return nil, wrapOpErr("get snapshot", sprintNumber, err)
	}

	var snap models.Snapshot
	var rawNumbers string
	err = s.db.DB.QueryRowContext(ctx,
		`SELECT id, sprint_id, snapshot_type, captured_at, total_issues, total_points, issue_numbers
		 FROM sprint_snapshots WHERE sprint_id = ? AND snapshot_type = ?`,
		sp.ID, typ,
	).Scan(&snap.ID, &snap.SprintID, &snap.Type, &snap.CapturedAt,
		&snap.TotalIssues, &snap.TotalPoints, &rawNumbers)
	if err == sql.ErrNoRows {
		return nil, wrapOpErr("get snapshot", sprintNumber,
			notFoundf("no %s snapshot for sprint %d", typ, sprintNumber))
	}
	if err != nil {
		return nil, wrapOpErr("get snapshot", sprintNumber, err)
	}
	if err := json.Unmarshal([]byte(rawNumbers), &snap.IssueNumbers); err != nil {
		return nil, wrapOpErr("get snapshot", sprintNumber, err)
	}
	return &snap, nil
}

// upsertSnapshot writes a snapshot row keyed on (sprint_id, snapshot_type),
// replacing any previous capture. Issue numbers are stored as a JSON array.
func upsertSnapshot(ctx context.Context, exec executor, sprintID int64, typ models.SnapshotType, totalIssues, totalPoints int, issueNumbers []int) error {
	if issueNumbers == nil {
		issueNumbers = []int{}
	}
	raw, err := json.Marshal(issueNumbers)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx,
		`INSERT OR REPLACE INTO sprint_snapshots
		 (sprint_id, snapshot_type, captured_at, total_issues, total_points, issue_numbers)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sprintID, typ, nowStamp(), totalIssues, totalPoints, string(raw))
	return err
}
