package database

import (
	"context"
	"strings"

	"sprintdash/internal/models"
)

// CreateSprint records a new sprint in the planned state.
func (s *Store) CreateSprint(ctx context.Context, number int, startDate, endDate, goal string) (*models.Sprint, error) {
	if number <= 0 {
		return nil, wrapOpErr("create", number, validationf("sprint number must be positive"))
	}

	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	now := nowStamp()
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO sprints (repo_owner, repo_name, number, status, start_date, end_date, goal, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.owner, s.repo, number, models.StatusPlanned,
		nullable(startDate), nullable(endDate), goal, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, wrapOpErr("create", number, conflictf("sprint %d already exists", number))
		}
		return nil, wrapOpErr("create", number, err)
	}

	sp, err := s.getSprint(ctx, s.db.DB, number)
	return sp, wrapOpErr("create", number, err)
}

// SprintUpdate carries the optional fields UpdateSprint may change. Nil
// pointers leave the stored value untouched.
type SprintUpdate struct {
	StartDate *string
	EndDate   *string
	Goal      *string
	Status    *string
}

var statusMethods = map[models.SprintStatus]string{
	models.StatusInProgress: "StartSprint",
	models.StatusCompleted:  "CloseSprint",
	models.StatusCancelled:  "CancelSprint",
}

// UpdateSprint changes the dates or goal of a sprint that is not in a
// terminal state. Status transitions are rejected here; they belong to
// the dedicated lifecycle operations.
func (s *Store) UpdateSprint(ctx context.Context, number int, upd SprintUpdate) (*models.Sprint, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	if upd.Status != nil {
		want := models.SprintStatus(*upd.Status)
		if method, ok := statusMethods[want]; ok {
			return nil, wrapOpErr("update", number,
				validationf("status cannot be changed via update; use %s", method))
		}
		return nil, wrapOpErr("update", number, validationf("invalid status %q", *upd.Status))
	}

	sp, err := s.getSprint(ctx, s.db.DB, number)
	if err != nil {
		return nil, wrapOpErr("update", number, err)
	}
	if sp.Status.IsFrozen() {
		return nil, wrapOpErr("update", number,
			lifecyclef("sprint %d is %s and cannot be updated", number, sp.Status))
	}

	var sets []string
	var args []any
	if upd.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, nullable(*upd.StartDate))
	}
	if upd.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, nullable(*upd.EndDate))
	}
	if upd.Goal != nil {
		sets = append(sets, "goal = ?")
		args = append(args, *upd.Goal)
	}
	if len(sets) == 0 {
		return sp, nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, nowStamp(), sp.ID)
	_, err = s.db.DB.ExecContext(ctx,
		`UPDATE sprints SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapOpErr("update", number, err)
	}

	sp, err = s.getSprint(ctx, s.db.DB, number)
	return sp, wrapOpErr("update", number, err)
}

// nullable maps an empty string to NULL so optional date fields round-trip
// as nil pointers.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
