package database

import (
	"context"
	"errors"
	"testing"

	"sprintdash/internal/models"
)

func TestInsertHistoricalSprint(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	sp, err := store.InsertHistoricalSprint(ctx, SprintSeed{
		Number:    12,
		Status:    models.StatusCompleted,
		StartDate: "2025-06-02",
		EndDate:   "2025-06-13",
		Goal:      "historical",
	})
	if err != nil {
		t.Fatalf("InsertHistoricalSprint failed: %v", err)
	}
	if sp.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed (bypassing planned-only rule)", sp.Status)
	}
}

func TestInsertHistoricalSprintValidation(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	_, err := store.InsertHistoricalSprint(ctx, SprintSeed{Number: 0, Status: models.StatusCompleted})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("zero number = %v, want ErrValidation", err)
	}
	_, err = store.InsertHistoricalSprint(ctx, SprintSeed{Number: 1, Status: "archived"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status = %v, want ErrValidation", err)
	}
}

func TestInsertHistoricalSprintDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithSprint(3).Store()

	_, err := store.InsertHistoricalSprint(ctx, SprintSeed{Number: 3, Status: models.StatusCompleted})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate seed = %v, want ErrConflict", err)
	}
}

// Even the seeding path cannot create a second active sprint; the partial
// unique index applies to every insert.
func TestInsertHistoricalSprintSecondActive(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithActiveSprint(1).Store()

	_, err := store.InsertHistoricalSprint(ctx, SprintSeed{Number: 2, Status: models.StatusInProgress})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second active seed = %v, want ErrConflict", err)
	}
}
