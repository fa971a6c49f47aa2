package database

import (
	"context"
	"database/sql"

	"sprintdash/internal/models"
)

// StartResult reports the outcome of StartSprint.
type StartResult struct {
	Number    int                 `json:"number"`
	Status    models.SprintStatus `json:"status"`
	StartDate string              `json:"start_date"`
	Snapshot  models.SnapshotType `json:"snapshot"`
	Issues    []int               `json:"issues"`
}

// StartSprint transitions a planned sprint to in_progress and captures the
// start snapshot. Status update and snapshot happen in one transaction.
//
// Only one sprint per repo may be in progress: a second start fails with
// ErrConflict, checked up front and backed by the partial unique index for
// the concurrent case.
func (s *Store) StartSprint(ctx context.Context, number int, startDate string) (*StartResult, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	var result *StartResult
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sp, err := s.getSprint(ctx, tx, number)
		if err != nil {
			return err
		}
		if sp.Status != models.StatusPlanned {
			return lifecyclef("sprint %d is %s (must be planned to start)", number, sp.Status)
		}
		if current, err := s.currentSprintNumber(ctx, tx); err == nil {
			return conflictf("sprint %d is already in progress", current)
		} else if !isNotFound(err) {
			return err
		}

		issues, err := s.issueNumbers(ctx, tx, sp.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE sprints SET status = 'in_progress', start_date = ?, updated_at = ?
			 WHERE id = ?`,
			startDate, nowStamp(), sp.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return conflictf("cannot start sprint %d: another sprint is already in progress", number)
			}
			return err
		}

		if err := upsertSnapshot(ctx, tx, sp.ID, models.SnapshotStart, len(issues), 0, issues); err != nil {
			return err
		}

		result = &StartResult{
			Number:    number,
			Status:    models.StatusInProgress,
			StartDate: startDate,
			Snapshot:  models.SnapshotStart,
			Issues:    issues,
		}
		return nil
	})
	if err != nil {
		return nil, wrapOpErr("start", number, err)
	}
	return result, nil
}

// CloseRequest carries everything CloseSprint needs. Snapshot totals are
// supplied by the caller, who has the point values from the tracker.
type CloseRequest struct {
	Number          int
	EndDate         string
	TotalIssues     int
	TotalPoints     int
	IssueNumbers    []int
	CarryOverTo     *int
	CarryOverIssues []int
}

// CloseResult reports the outcome of CloseSprint. CarriedOver is nil when
// no carry-over was requested.
type CloseResult struct {
	Number      int                 `json:"sprint"`
	Status      models.SprintStatus `json:"status"`
	EndDate     string              `json:"end_date"`
	CarriedOver *CarryOverResult    `json:"carried_over,omitempty"`
}

// CarryOverResult names the target sprint and the issues actually moved.
type CarryOverResult struct {
	ToSprint int   `json:"to_sprint"`
	Issues   []int `json:"issues"`
}

// CloseSprint completes an in_progress sprint: end snapshot, optional
// carry-over of unfinished issues, and the status flip, all in one
// transaction.
//
// Carry-over skips issues that are not active in the closing sprint and
// issues already active in the target; the returned result lists only the
// issues actually moved.
func (s *Store) CloseSprint(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	if req.CarryOverTo != nil && req.CarryOverIssues == nil {
		return nil, wrapOpErr("close", req.Number,
			validationf("carry_over_issues required when carry_over_to is set"))
	}

	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	var result *CloseResult
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sp, err := s.getSprint(ctx, tx, req.Number)
		if err != nil {
			return err
		}
		if sp.Status != models.StatusInProgress {
			return lifecyclef("sprint %d is %s (must be in_progress to close)", req.Number, sp.Status)
		}

		var target *models.Sprint
		if req.CarryOverTo != nil {
			to := *req.CarryOverTo
			if to == req.Number {
				return lifecyclef("cannot carry over to the same sprint")
			}
			target, err = s.getSprint(ctx, tx, to)
			if isNotFound(err) {
				return notFoundf("carry-over target sprint %d", to)
			}
			if err != nil {
				return err
			}
			if target.Status.IsFrozen() {
				return lifecyclef("cannot carry over to %s sprint %d", target.Status, to)
			}
		}

		if err := upsertSnapshot(ctx, tx, sp.ID, models.SnapshotEnd,
			req.TotalIssues, req.TotalPoints, req.IssueNumbers); err != nil {
			return err
		}

		var carried []int
		if target != nil {
			carried, err = s.carryOverRows(ctx, tx, sp.ID, target.ID, req.CarryOverIssues)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE sprints SET status = 'completed', end_date = ?, updated_at = ?
			 WHERE id = ?`,
			req.EndDate, nowStamp(), sp.ID,
		)
		if err != nil {
			return err
		}

		result = &CloseResult{
			Number:  req.Number,
			Status:  models.StatusCompleted,
			EndDate: req.EndDate,
		}
		if req.CarryOverTo != nil {
			result.CarriedOver = &CarryOverResult{ToSprint: *req.CarryOverTo, Issues: carried}
		}
		return nil
	})
	if err != nil {
		return nil, wrapOpErr("close", req.Number, err)
	}
	return result, nil
}

// CancelResult reports the outcome of CancelSprint. Snapshot is non-empty
// only when the sprint was in progress and an end snapshot was captured.
type CancelResult struct {
	Number   int                 `json:"number"`
	Status   models.SprintStatus `json:"status"`
	Snapshot models.SnapshotType `json:"snapshot,omitempty"`
}

// CancelSprint cancels a planned or in_progress sprint. An in_progress
// sprint gets an end snapshot and an end date first; a planned sprint is
// cancelled directly with no snapshot.
func (s *Store) CancelSprint(ctx context.Context, number int) (*CancelResult, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	var result *CancelResult
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sp, err := s.getSprint(ctx, tx, number)
		if err != nil {
			return err
		}
		if sp.Status.IsFrozen() {
			return lifecyclef("sprint %d is already %s", number, sp.Status)
		}

		wasActive := sp.Status == models.StatusInProgress
		now := nowStamp()

		if wasActive {
			issues, err := s.issueNumbers(ctx, tx, sp.ID)
			if err != nil {
				return err
			}
			if err := upsertSnapshot(ctx, tx, sp.ID, models.SnapshotEnd, len(issues), 0, issues); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE sprints SET status = 'cancelled', end_date = ?, updated_at = ? WHERE id = ?`,
				now[:10], now, sp.ID,
			)
			if err != nil {
				return err
			}
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE sprints SET status = 'cancelled', updated_at = ? WHERE id = ?`,
				now, sp.ID,
			)
			if err != nil {
				return err
			}
		}

		result = &CancelResult{Number: number, Status: models.StatusCancelled}
		if wasActive {
			result.Snapshot = models.SnapshotEnd
		}
		return nil
	})
	if err != nil {
		return nil, wrapOpErr("cancel", number, err)
	}
	return result, nil
}
