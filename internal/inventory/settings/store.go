package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"SIMS-backend/internal/inventory/model"
)

type SettingsStore interface {
	// Get returns nil when no settings row has been persisted yet.
	Get(ctx context.Context) (*model.Settings, error)
	// Put upserts the singleton row.
	Put(ctx context.Context, s model.Settings) error
}

// Store keeps the whole settings singleton as one JSON document in a
// single-row table.
type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

func (s *Store) Get(ctx context.Context) (*model.Settings, error) {
	const q = `SELECT data FROM settings WHERE id = 1`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, q).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var out model.Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding settings row: %w", err)
	}
	return &out, nil
}

func (s *Store) Put(ctx context.Context, in model.Settings) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	const q = `
	INSERT INTO settings (id, data, updated_at) VALUES (1, ?, NOW(6))
	ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = NOW(6)`
	_, err = s.db.ExecContext(ctx, q, raw)
	return err
}
