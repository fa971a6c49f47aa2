package database

import (
	"context"
	"database/sql"

	"sprintdash/internal/models"
)

const sprintColumns = `id, repo_owner, repo_name, number, status, start_date, end_date, goal, created_at, updated_at`

// Store exposes the engine's operations scoped to one repository. All
// methods read and write through the shared Database.
type Store struct {
	db    *Database
	owner string
	repo  string
}

// NewStore returns a Store bound to (owner, repo).
func NewStore(db *Database, owner, repo string) *Store {
	return &Store{db: db, owner: owner, repo: repo}
}

// Owner returns the repository owner the store is scoped to.
func (s *Store) Owner() string { return s.owner }

// Repo returns the repository name the store is scoped to.
func (s *Store) Repo() string { return s.repo }

func scanSprint(row interface{ Scan(dest ...any) error }) (*models.Sprint, error) {
	var sp models.Sprint
	err := row.Scan(
		&sp.ID, &sp.RepoOwner, &sp.RepoName, &sp.Number, &sp.Status,
		&sp.StartDate, &sp.EndDate, &sp.Goal, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// getSprint looks up a sprint by number within the store's scope on the
// given executor, returning ErrNotFound when absent.
func (s *Store) getSprint(ctx context.Context, exec executor, number int) (*models.Sprint, error) {
	row := exec.QueryRowContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints
		 WHERE repo_owner = ? AND repo_name = ? AND number = ?`,
		s.owner, s.repo, number,
	)
	sp, err := scanSprint(row)
	if err == sql.ErrNoRows {
		return nil, notFoundf("sprint %d", number)
	}
	return sp, err
}

// GetSprint returns the sprint with the given number.
func (s *Store) GetSprint(ctx context.Context, number int) (*models.Sprint, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	sp, err := s.getSprint(ctx, s.db.DB, number)
	return sp, wrapOpErr("get", number, err)
}

// ListSprints returns sprints ordered by number descending, optionally
// filtered by status (empty string means all).
func (s *Store) ListSprints(ctx context.Context, status models.SprintStatus) ([]models.Sprint, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	query := `SELECT ` + sprintColumns + ` FROM sprints
		WHERE repo_owner = ? AND repo_name = ?`
	args := []any{s.owner, s.repo}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY number DESC`

	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapOpErr("list", 0, err)
	}
	defer rows.Close()

	var sprints []models.Sprint
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			return nil, wrapOpErr("list", 0, err)
		}
		sprints = append(sprints, *sp)
	}
	return sprints, wrapOpErr("list", 0, rows.Err())
}

// currentSprintNumber returns the highest in_progress sprint number on the
// given executor, or ErrNotFound when no sprint is active.
func (s *Store) currentSprintNumber(ctx context.Context, exec executor) (int, error) {
	var number int
	err := exec.QueryRowContext(ctx,
		`SELECT number FROM sprints
		 WHERE repo_owner = ? AND repo_name = ? AND status = 'in_progress'
		 ORDER BY number DESC LIMIT 1`,
		s.owner, s.repo,
	).Scan(&number)
	if err == sql.ErrNoRows {
		return 0, notFoundf("no sprint in progress")
	}
	return number, err
}

// CurrentSprintNumber returns the active sprint's number, or ErrNotFound
// when no sprint is in progress.
func (s *Store) CurrentSprintNumber(ctx context.Context) (int, error) {
	ctx, cancel := s.db.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	n, err := s.currentSprintNumber(ctx, s.db.DB)
	return n, wrapOpErr("current", 0, err)
}
