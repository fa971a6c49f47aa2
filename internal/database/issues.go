package database

import (
	"context"
	"database/sql"

	"sprintdash/internal/models"
)

// AddIssue assigns an issue to a sprint. Re-adding an issue that is already
// active is a no-op; re-adding a previously removed issue creates a fresh
// ledger row so history is preserved.
func (s *Store) AddIssue(ctx context.Context, sprintNumber, issueNumber int, source models.AssignmentSource) error {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sp, err := s.getSprint(ctx, tx, sprintNumber)
		if err != nil {
			return err
		}
		if sp.Status.IsFrozen() {
			return lifecyclef("sprint %d is %s; membership is frozen", sprintNumber, sp.Status)
		}

		active, err := isActiveAssignment(ctx, tx, sp.ID, issueNumber)
		if err != nil {
			return err
		}
		if active {
			return nil
		}
		return insertAssignment(ctx, tx, sp.ID, issueNumber, source)
	})
	return wrapOpErr("add issue", sprintNumber, err)
}

// RemoveIssue soft-removes an issue from a sprint by stamping removed_at on
// its active ledger row. Removing an issue that is not active fails with
// ErrNotFound.
func (s *Store) RemoveIssue(ctx context.Context, sprintNumber, issueNumber int) error {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sp, err := s.getSprint(ctx, tx, sprintNumber)
		if err != nil {
			return err
		}
		if sp.Status.IsFrozen() {
			return lifecyclef("sprint %d is %s; membership is frozen", sprintNumber, sp.Status)
		}

		removed, err := softRemoveAssignment(ctx, tx, sp.ID, issueNumber, nowStamp())
		if err != nil {
			return err
		}
		if !removed {
			return notFoundf("issue %d is not active in sprint %d", issueNumber, sprintNumber)
		}
		return nil
	})
	return wrapOpErr("remove issue", sprintNumber, err)
}

// MoveIssue moves an issue between two non-frozen sprints: soft-remove from
// the source and add to the target as a manual assignment, atomically. If
// the issue is already active in the target only the removal happens.
func (s *Store) MoveIssue(ctx context.Context, issueNumber, fromSprint, toSprint int) error {
	if fromSprint == toSprint {
		return wrapOpErr("move issue", fromSprint,
			lifecyclef("source and target sprint are the same"))
	}

	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		from, err := s.getSprint(ctx, tx, fromSprint)
		if err != nil {
			return err
		}
		to, err := s.getSprint(ctx, tx, toSprint)
		if err != nil {
			return err
		}
		if from.Status.IsFrozen() {
			return lifecyclef("cannot move from %s sprint %d", from.Status, fromSprint)
		}
		if to.Status.IsFrozen() {
			return lifecyclef("cannot move to %s sprint %d", to.Status, toSprint)
		}

		removed, err := softRemoveAssignment(ctx, tx, from.ID, issueNumber, nowStamp())
		if err != nil {
			return err
		}
		if !removed {
			return notFoundf("issue %d is not active in sprint %d", issueNumber, fromSprint)
		}

		active, err := isActiveAssignment(ctx, tx, to.ID, issueNumber)
		if err != nil {
			return err
		}
		if active {
			return nil
		}
		return insertAssignment(ctx, tx, to.ID, issueNumber, models.SourceManual)
	})
	return wrapOpErr("move issue", fromSprint, err)
}

// CarryOver moves the listed issues from one sprint into another with
// source=rollover, in a single transaction. Issues not active in the source
// are skipped; issues already active in the target are removed from the
// source only. Returns the issues actually carried.
func (s *Store) CarryOver(ctx context.Context, fromSprint, toSprint int, issueNumbers []int) ([]int, error) {
	if fromSprint == toSprint {
		return nil, wrapOpErr("carry over", fromSprint,
			lifecyclef("source and target sprint are the same"))
	}

	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	var carried []int
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		from, err := s.getSprint(ctx, tx, fromSprint)
		if isNotFound(err) {
			return notFoundf("source sprint %d", fromSprint)
		}
		if err != nil {
			return err
		}
		if from.Status.IsFrozen() {
			return lifecyclef("cannot carry over from %s sprint %d", from.Status, fromSprint)
		}
		to, err := s.getSprint(ctx, tx, toSprint)
		if isNotFound(err) {
			return notFoundf("target sprint %d", toSprint)
		}
		if err != nil {
			return err
		}
		if to.Status.IsFrozen() {
			return lifecyclef("cannot carry over to %s sprint %d", to.Status, toSprint)
		}

		carried, err = s.carryOverRows(ctx, tx, from.ID, to.ID, issueNumbers)
		return err
	})
	if err != nil {
		return nil, wrapOpErr("carry over", fromSprint, err)
	}
	return carried, nil
}

// carryOverRows does the per-issue ledger work shared by CarryOver and
// CloseSprint. Runs on the caller's transaction.
func (s *Store) carryOverRows(ctx context.Context, exec executor, fromID, toID int64, issueNumbers []int) ([]int, error) {
	now := nowStamp()
	var carried []int
	for _, num := range issueNumbers {
		removed, err := softRemoveAssignment(ctx, exec, fromID, num, now)
		if err != nil {
			return nil, err
		}
		if !removed {
			continue
		}
		active, err := isActiveAssignment(ctx, exec, toID, num)
		if err != nil {
			return nil, err
		}
		if !active {
			if err := insertAssignment(ctx, exec, toID, num, models.SourceRollover); err != nil {
				return nil, err
			}
		}
		carried = append(carried, num)
	}
	return carried, nil
}

// IssueNumbers returns the active issue numbers for a sprint, ascending.
func (s *Store) IssueNumbers(ctx context.Context, sprintNumber int) ([]int, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	sp, err := s.getSprint(ctx, s.db.DB, sprintNumber)
	if err != nil {
		return nil, wrapOpErr("issue numbers", sprintNumber, err)
	}
	nums, err := s.issueNumbers(ctx, s.db.DB, sp.ID)
	return nums, wrapOpErr("issue numbers", sprintNumber, err)
}

func (s *Store) issueNumbers(ctx context.Context, exec executor, sprintID int64) ([]int, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT issue_number FROM sprint_issues
		 WHERE sprint_id = ? AND removed_at IS NULL
		 ORDER BY issue_number`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nums []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, rows.Err()
}

// AllAssignedNumbers returns every issue number currently active in any
// sprint of this repo. Used to compute the backlog.
func (s *Store) AllAssignedNumbers(ctx context.Context) (map[int]bool, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT DISTINCT si.issue_number
		 FROM sprint_issues si
		 JOIN sprints s ON si.sprint_id = s.id
		 WHERE s.repo_owner = ? AND s.repo_name = ? AND si.removed_at IS NULL`,
		s.owner, s.repo)
	if err != nil {
		return nil, wrapOpErr("assigned numbers", 0, err)
	}
	defer rows.Close()

	assigned := make(map[int]bool)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, wrapOpErr("assigned numbers", 0, err)
		}
		assigned[n] = true
	}
	return assigned, wrapOpErr("assigned numbers", 0, rows.Err())
}

// Assignments returns the full membership ledger for a sprint, including
// removed rows, ordered by added_at.
func (s *Store) Assignments(ctx context.Context, sprintNumber int) ([]models.IssueAssignment, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	sp, err := s.getSprint(ctx, s.db.DB, sprintNumber)
	if err != nil {
		return nil, wrapOpErr("assignments", sprintNumber, err)
	}

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, sprint_id, issue_number, added_at, removed_at, source
		 FROM sprint_issues WHERE sprint_id = ? ORDER BY added_at`, sp.ID)
	if err != nil {
		return nil, wrapOpErr("assignments", sprintNumber, err)
	}
	defer rows.Close()

	var list []models.IssueAssignment
	for rows.Next() {
		var a models.IssueAssignment
		if err := rows.Scan(&a.ID, &a.SprintID, &a.IssueNumber, &a.AddedAt, &a.RemovedAt, &a.Source); err != nil {
			return nil, wrapOpErr("assignments", sprintNumber, err)
		}
		list = append(list, a)
	}
	return list, wrapOpErr("assignments", sprintNumber, rows.Err())
}

func isActiveAssignment(ctx context.Context, exec executor, sprintID int64, issueNumber int) (bool, error) {
	var one int
	err := exec.QueryRowContext(ctx,
		`SELECT 1 FROM sprint_issues
		 WHERE sprint_id = ? AND issue_number = ? AND removed_at IS NULL`,
		sprintID, issueNumber).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func insertAssignment(ctx context.Context, exec executor, sprintID int64, issueNumber int, source models.AssignmentSource) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO sprint_issues (sprint_id, issue_number, source, added_at)
		 VALUES (?, ?, ?, ?)`,
		sprintID, issueNumber, source, fineStamp())
	return err
}

func softRemoveAssignment(ctx context.Context, exec executor, sprintID int64, issueNumber int, stamp string) (bool, error) {
	res, err := exec.ExecContext(ctx,
		`UPDATE sprint_issues SET removed_at = ?
		 WHERE sprint_id = ? AND issue_number = ? AND removed_at IS NULL`,
		stamp, sprintID, issueNumber)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
