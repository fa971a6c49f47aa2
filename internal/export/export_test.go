package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sprintdash/internal/database"
	"sprintdash/internal/models"
)

func seedStore(t *testing.T, ctx context.Context) *database.Database {
	t.Helper()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db, "acme", "widgets")
	if _, err := store.CreateSprint(ctx, 47, "2026-01-05", "", "stabilize"); err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}
	if err := store.AddIssue(ctx, 47, 101, models.SourceManual); err != nil {
		t.Fatalf("AddIssue failed: %v", err)
	}
	if _, err := store.StartSprint(ctx, 47, "2026-01-05"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}
	return db
}

func TestPlaintextExport(t *testing.T) {
	ctx := context.Background()
	db := seedStore(t, ctx)

	data, err := Bytes(ctx, db, Options{})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	dump, err := Read(data, "")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(dump.Sprints) != 1 || dump.Sprints[0].Number != 47 {
		t.Fatalf("sprints = %+v", dump.Sprints)
	}
	if len(dump.Assignments) != 1 || dump.Assignments[0].IssueNumber != 101 {
		t.Fatalf("assignments = %+v", dump.Assignments)
	}
	if len(dump.Snapshots) != 1 {
		t.Fatalf("snapshots = %+v", dump.Snapshots)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := seedStore(t, ctx)

	data, err := Bytes(ctx, db, Options{EncryptOutput: true, Passphrase: "Sekrit123"})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	var envelope struct {
		Encrypted bool   `json:"encrypted"`
		Salt      string `json:"salt"`
		Nonce     string `json:"nonce"`
		Data      string `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("envelope parse failed: %v", err)
	}
	if !envelope.Encrypted || envelope.Salt == "" || envelope.Nonce == "" {
		t.Fatalf("envelope = %+v", envelope)
	}
	if bytes.Contains(data, []byte("stabilize")) {
		t.Fatal("ciphertext leaks plaintext content")
	}

	dump, err := Read(data, "Sekrit123")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(dump.Sprints) != 1 || dump.Sprints[0].Goal != "stabilize" {
		t.Fatalf("sprints = %+v", dump.Sprints)
	}
}

func TestWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	db := seedStore(t, ctx)

	data, err := Bytes(ctx, db, Options{EncryptOutput: true, Passphrase: "Sekrit123"})
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if _, err := Read(data, "wrong"); err == nil {
		t.Fatal("expected decryption failure with wrong passphrase")
	}
	if _, err := Read(data, ""); err == nil {
		t.Fatal("expected error reading encrypted export without passphrase")
	}
}

func TestEncryptRequiresPassphrase(t *testing.T) {
	ctx := context.Background()
	db := seedStore(t, ctx)
	if _, err := Bytes(ctx, db, Options{EncryptOutput: true}); err == nil {
		t.Fatal("expected error for encrypted export without passphrase")
	}
}

func TestToFile(t *testing.T) {
	ctx := context.Background()
	db := seedStore(t, ctx)

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := ToFile(ctx, db, path, Options{}); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if _, err := Read(data, ""); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
}
