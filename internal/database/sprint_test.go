package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sprintdash/internal/models"
)

func TestCreateSprint(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	sp, err := store.CreateSprint(ctx, 47, "2026-01-05", "2026-01-16", "ship the parser")
	if err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}
	if sp.Number != 47 || sp.Status != models.StatusPlanned {
		t.Fatalf("created sprint = number %d status %q, want 47 planned", sp.Number, sp.Status)
	}
	if sp.StartDate == nil || *sp.StartDate != "2026-01-05" {
		t.Fatalf("start date = %v, want 2026-01-05", sp.StartDate)
	}
	if sp.Goal != "ship the parser" {
		t.Fatalf("goal = %q", sp.Goal)
	}
}

func TestCreateSprintDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	if _, err := store.CreateSprint(ctx, 1, "", "", ""); err != nil {
		t.Fatalf("first CreateSprint failed: %v", err)
	}
	_, err := store.CreateSprint(ctx, 1, "", "", "")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create error = %v, want ErrConflict", err)
	}
}

func TestCreateSprintInvalidNumber(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	for _, n := range []int{0, -3} {
		if _, err := store.CreateSprint(ctx, n, "", "", ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("CreateSprint(%d) error = %v, want ErrValidation", n, err)
		}
	}
}

func TestGetSprintNotFound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	_, err := store.GetSprint(ctx, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error %v does not wrap OpError", err)
	}
	if opErr.Op != "get" || opErr.Number != 99 {
		t.Fatalf("OpError = %+v, want op=get number=99", opErr)
	}
}

func TestListSprintsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	b := NewTestDataBuilder(t).WithSprint(1).WithSprint(3).WithSprint(2)
	store := b.Store()

	if _, err := store.StartSprint(ctx, 2, "2026-01-05"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}

	all, err := store.ListSprints(ctx, "")
	if err != nil {
		t.Fatalf("ListSprints failed: %v", err)
	}
	if len(all) != 3 || all[0].Number != 3 || all[1].Number != 2 || all[2].Number != 1 {
		t.Fatalf("unexpected order: %+v", all)
	}

	planned, err := store.ListSprints(ctx, models.StatusPlanned)
	if err != nil {
		t.Fatalf("ListSprints(planned) failed: %v", err)
	}
	if len(planned) != 2 {
		t.Fatalf("planned count = %d, want 2", len(planned))
	}
}

func TestCurrentSprintNumber(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	if _, err := store.CurrentSprintNumber(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty db error = %v, want ErrNotFound", err)
	}

	if _, err := store.CreateSprint(ctx, 5, "", "", ""); err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}
	if _, err := store.StartSprint(ctx, 5, "2026-01-05"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}

	n, err := store.CurrentSprintNumber(ctx)
	if err != nil {
		t.Fatalf("CurrentSprintNumber failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("current = %d, want 5", n)
	}
}

func TestUpdateSprintFields(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithSprint(1).Store()

	start := "2026-02-02"
	goal := "new goal"
	sp, err := store.UpdateSprint(ctx, 1, SprintUpdate{StartDate: &start, Goal: &goal})
	if err != nil {
		t.Fatalf("UpdateSprint failed: %v", err)
	}
	if sp.StartDate == nil || *sp.StartDate != start {
		t.Fatalf("start date = %v, want %s", sp.StartDate, start)
	}
	if sp.Goal != goal {
		t.Fatalf("goal = %q, want %q", sp.Goal, goal)
	}
}

func TestUpdateSprintNoFieldsIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithSprint(1).Store()

	sp, err := store.UpdateSprint(ctx, 1, SprintUpdate{})
	if err != nil {
		t.Fatalf("UpdateSprint failed: %v", err)
	}
	if sp.Number != 1 || sp.Status != models.StatusPlanned {
		t.Fatalf("unexpected sprint: %+v", sp)
	}
}

func TestUpdateSprintRejectsStatusChange(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithSprint(1).Store()

	cases := []struct {
		status string
		method string
	}{
		{"in_progress", "StartSprint"},
		{"completed", "CloseSprint"},
		{"cancelled", "CancelSprint"},
	}
	for _, tc := range cases {
		_, err := store.UpdateSprint(ctx, 1, SprintUpdate{Status: &tc.status})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("status %q error = %v, want ErrValidation", tc.status, err)
		}
		if !strings.Contains(err.Error(), tc.method) {
			t.Fatalf("status %q error %q does not name %s", tc.status, err, tc.method)
		}
	}

	bogus := "archived"
	if _, err := store.UpdateSprint(ctx, 1, SprintUpdate{Status: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown status error = %v, want ErrValidation", err)
	}
}

func TestUpdateSprintFrozenRejected(t *testing.T) {
	ctx := context.Background()
	store := NewTestDataBuilder(t).WithActiveSprint(1).Store()

	if _, err := store.CloseSprint(ctx, CloseRequest{Number: 1, EndDate: "2026-01-16"}); err != nil {
		t.Fatalf("CloseSprint failed: %v", err)
	}

	goal := "too late"
	_, err := store.UpdateSprint(ctx, 1, SprintUpdate{Goal: &goal})
	if !errors.Is(err, ErrLifecycle) {
		t.Fatalf("update on completed sprint = %v, want ErrLifecycle", err)
	}
}
