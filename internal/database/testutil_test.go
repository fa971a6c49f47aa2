package database

import (
	"context"
	"path/filepath"
	"testing"

	"sprintdash/internal/models"
)

func setupTestDB(t *testing.T, ctx context.Context) *Database {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("db close failed: %v", err)
		}
	})
	return db
}

func setupTestStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()
	return NewStore(setupTestDB(t, ctx), "acme", "widgets")
}

type TestDataBuilder struct {
	t     *testing.T
	ctx   context.Context
	store *Store
}

func NewTestDataBuilder(t *testing.T) *TestDataBuilder {
	t.Helper()
	ctx := context.Background()
	return &TestDataBuilder{t: t, ctx: ctx, store: setupTestStore(t, ctx)}
}

func (b *TestDataBuilder) Store() *Store { return b.store }

func (b *TestDataBuilder) WithSprint(number int) *TestDataBuilder {
	b.t.Helper()
	if _, err := b.store.CreateSprint(b.ctx, number, "", "", ""); err != nil {
		b.t.Fatalf("CreateSprint(%d) failed: %v", number, err)
	}
	return b
}

func (b *TestDataBuilder) WithActiveSprint(number int) *TestDataBuilder {
	b.t.Helper()
	b.WithSprint(number)
	if _, err := b.store.StartSprint(b.ctx, number, "2026-01-05"); err != nil {
		b.t.Fatalf("StartSprint(%d) failed: %v", number, err)
	}
	return b
}

func (b *TestDataBuilder) WithIssues(sprintNumber int, issues ...int) *TestDataBuilder {
	b.t.Helper()
	for _, n := range issues {
		if err := b.store.AddIssue(b.ctx, sprintNumber, n, models.SourceManual); err != nil {
			b.t.Fatalf("AddIssue(%d, %d) failed: %v", sprintNumber, n, err)
		}
	}
	return b
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
