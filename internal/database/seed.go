package database

import (
	"context"

	"sprintdash/internal/models"
)

// SprintSeed describes a historical sprint to insert verbatim. Used only by
// migration seeding, which needs to record sprints with whatever status
// they already reached.
type SprintSeed struct {
	Number    int
	Status    models.SprintStatus
	StartDate string
	EndDate   string
	Goal      string
}

// InsertHistoricalSprint inserts a sprint with an arbitrary status,
// bypassing the planned-only creation rule. The uniqueness constraints
// still apply: a duplicate number or a second in_progress sprint fails
// with ErrConflict.
func (s *Store) InsertHistoricalSprint(ctx context.Context, seed SprintSeed) (*models.Sprint, error) {
	if seed.Number <= 0 {
		return nil, wrapOpErr("seed", seed.Number, validationf("sprint number must be positive"))
	}
	if !seed.Status.IsValid() {
		return nil, wrapOpErr("seed", seed.Number, validationf("invalid status %q", seed.Status))
	}

	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	now := nowStamp()
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO sprints (repo_owner, repo_name, number, status, start_date, end_date, goal, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.owner, s.repo, seed.Number, seed.Status,
		nullable(seed.StartDate), nullable(seed.EndDate), seed.Goal, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, wrapOpErr("seed", seed.Number,
				conflictf("sprint %d already exists or another sprint is in progress", seed.Number))
		}
		return nil, wrapOpErr("seed", seed.Number, err)
	}

	sp, err := s.getSprint(ctx, s.db.DB, seed.Number)
	return sp, wrapOpErr("seed", seed.Number, err)
}
