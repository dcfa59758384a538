// Package prefs keeps per-owner local state in SQLite: the onboarding flag
// and the activity feed written by the worker. The schema is managed with
// embedded migrations.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moneta/internal/events"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// ActivityEntry is one recorded mutation, newest first in listings.
type ActivityEntry struct {
	ID         int64
	Entity     string
	EntityID   string
	Op         string
	OwnerID    string
	OccurredAt time.Time
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ConsumeOnboarding reports whether onboarding is still pending for the owner
// and clears the flag in the same transaction, so only the first call per
// owner returns true.
func (s *Store) ConsumeOnboarding(ctx context.Context, ownerID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin onboarding tx: %w", err)
	}
	defer tx.Rollback()

	var pending bool
	err = tx.QueryRowContext(ctx,
		`SELECT onboarding_pending FROM owner_flags WHERE owner_id = ?`, ownerID,
	).Scan(&pending)
	switch {
	case err == sql.ErrNoRows:
		// First sighting of this owner: onboarding is due.
		pending = true
	case err != nil:
		return false, fmt.Errorf("read onboarding flag: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO owner_flags (owner_id, onboarding_pending, updated_at)
		VALUES (?, 0, datetime('now'))
		ON CONFLICT (owner_id) DO UPDATE SET
			onboarding_pending = 0,
			updated_at = datetime('now')`, ownerID)
	if err != nil {
		return false, fmt.Errorf("clear onboarding flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit onboarding tx: %w", err)
	}
	return pending, nil
}

// ResetOnboarding re-arms the onboarding flag for an owner.
func (s *Store) ResetOnboarding(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owner_flags (owner_id, onboarding_pending, updated_at)
		VALUES (?, 1, datetime('now'))
		ON CONFLICT (owner_id) DO UPDATE SET
			onboarding_pending = 1,
			updated_at = datetime('now')`, ownerID)
	if err != nil {
		return fmt.Errorf("reset onboarding flag: %w", err)
	}
	return nil
}

// RecordActivity appends a mutation event to the activity log.
func (s *Store) RecordActivity(ctx context.Context, ev events.EntityEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (entity, entity_id, op, owner_id, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.Entity, ev.ID, string(ev.Op), ev.OwnerID,
		ev.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// RecentActivity returns the newest entries for an owner, newest first.
func (s *Store) RecentActivity(ctx context.Context, ownerID string, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity, entity_id, op, owner_id, occurred_at
		FROM activity_log
		WHERE owner_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var (
			e  ActivityEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Op, &e.OwnerID, &at); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", at, err)
		}
		e.OccurredAt = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity log: %w", err)
	}
	return entries, nil
}
