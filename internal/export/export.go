// Package export writes JSON backups of the sprint store, optionally
// sealed with a passphrase.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"sprintdash/internal/database"
)

type Options struct {
	EncryptOutput bool
	Passphrase    string
}

// Bytes serializes the full store contents. With EncryptOutput set the
// payload is wrapped in an encrypted envelope keyed off the passphrase.
func Bytes(ctx context.Context, db *database.Database, opts Options) ([]byte, error) {
	dump, err := db.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	payload, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if !opts.EncryptOutput {
		return payload, nil
	}
	if opts.Passphrase == "" {
		return nil, fmt.Errorf("export: passphrase required for encrypted output")
	}
	return encryptPayload(payload, opts.Passphrase)
}

// ToFile writes the export to path with mode 0600.
func ToFile(ctx context.Context, db *database.Database, path string, opts Options) error {
	data, err := Bytes(ctx, db, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// Read parses an export file produced by Bytes. Encrypted envelopes need
// the passphrase they were sealed with; plaintext exports ignore it.
func Read(data []byte, passphrase string) (*database.Dump, error) {
	var probe struct {
		Encrypted bool `json:"encrypted"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("export: parse: %w", err)
	}
	if probe.Encrypted {
		if passphrase == "" {
			return nil, fmt.Errorf("export: passphrase required to read encrypted export")
		}
		plain, err := decryptPayload(data, passphrase)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	var dump database.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("export: parse: %w", err)
	}
	return &dump, nil
}
