// Package seed populates the sprint store from Gitea labels and
// milestones. It is the bootstrap path for repos that tracked sprints in
// the issue tracker before the store existed.
package seed

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"sprintdash/internal/database"
	"sprintdash/internal/models"
	"sprintdash/internal/tracker"
)

// Summary reports what a seeding run did.
type Summary struct {
	SprintsCreated int `json:"sprints_created"`
	SprintsSkipped int `json:"sprints_skipped"`
	OrphanSprints  int `json:"orphan_sprints"`
	IssuesMapped   int `json:"issues_mapped"`
	IssuesSkipped  int `json:"issues_skipped"`
}

// Run seeds the store from milestones ("Sprint N" titles become sprint
// rows with their derived status) and sprint/N issue labels (become
// migration-sourced assignments). Idempotent: existing sprints and
// assignments are skipped, so re-running after a partial failure is safe.
func Run(ctx context.Context, store *database.Store, reader tracker.IssueReader) (*Summary, error) {
	summary := &Summary{}
	now := time.Now().UTC()

	milestones, err := reader.Milestones(ctx, "all")
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]tracker.Milestone)
	for _, m := range milestones {
		if n := m.SprintNumber(); n > 0 {
			byNumber[n] = m
		}
	}
	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, number := range numbers {
		m := byNumber[number]
		if _, err := store.GetSprint(ctx, number); err == nil {
			summary.SprintsSkipped++
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}

		_, err := store.InsertHistoricalSprint(ctx, database.SprintSeed{
			Number:    number,
			Status:    models.SprintStatus(m.LifecycleState(now)),
			StartDate: m.StartDate(),
			Goal:      m.Description,
		})
		if err != nil {
			if errors.Is(err, database.ErrConflict) {
				summary.SprintsSkipped++
				continue
			}
			return nil, err
		}
		summary.SprintsCreated++
		log.Printf("seeded sprint %d (status=%s)", number, m.LifecycleState(now))
	}

	issues, err := reader.ListIssues(ctx, "all")
	if err != nil {
		return nil, err
	}

	assigned, err := store.AllAssignedNumbers(ctx)
	if err != nil {
		return nil, err
	}

	for _, issue := range issues {
		sprint := issue.SprintNumber()
		if sprint == 0 {
			continue
		}

		// A sprint/N label without a matching milestone still names a
		// sprint; record it as completed history.
		if _, err := store.GetSprint(ctx, sprint); errors.Is(err, database.ErrNotFound) {
			if _, err := store.InsertHistoricalSprint(ctx, database.SprintSeed{
				Number: sprint,
				Status: models.StatusCompleted,
			}); err == nil {
				summary.OrphanSprints++
				log.Printf("seeded orphan sprint %d (label only)", sprint)
			} else if !errors.Is(err, database.ErrConflict) {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		if assigned[issue.Number] {
			summary.IssuesSkipped++
			continue
		}
		err := store.AddIssue(ctx, sprint, issue.Number, models.SourceMigration)
		switch {
		case err == nil:
			summary.IssuesMapped++
			assigned[issue.Number] = true
		case errors.Is(err, database.ErrLifecycle), errors.Is(err, database.ErrNotFound):
			summary.IssuesSkipped++
		default:
			return nil, err
		}
	}

	return summary, nil
}
