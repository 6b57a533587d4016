package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order, each in its own transaction. Append only.
var migrations = []migration{
	{
		version: 1,
		name:    "claim and task state",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS claim_state (
				user_id TEXT PRIMARY KEY,
				claim_count INTEGER NOT NULL DEFAULT 0,
				cooldown_ends_at INTEGER,
				pause_ends_at INTEGER,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS task_state (
				user_id TEXT PRIMARY KEY,
				completed TEXT NOT NULL DEFAULT '[]',
				cooldowns TEXT NOT NULL DEFAULT '{}',
				updated_at INTEGER NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "wallet ledger",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS wallets (
				user_id TEXT PRIMARY KEY,
				balance INTEGER NOT NULL DEFAULT 0,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				type TEXT NOT NULL,
				description TEXT NOT NULL,
				amount INTEGER NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at)`,
		},
	},
	{
		version: 3,
		name:    "task verification countdowns",
		statements: []string{
			`ALTER TABLE task_state ADD COLUMN verifying TEXT NOT NULL DEFAULT '{}'`,
		},
	},
	{
		version: 4,
		name:    "bank directory cache",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS bank_directory_cache (
				provider TEXT PRIMARY KEY,
				banks TEXT NOT NULL,
				fetched_at INTEGER NOT NULL
			)`,
		},
	},
}

// LatestSchemaVersion is the version Migrate brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies pending migrations. Running it on an up-to-date database
// is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration, or 0 for a database
// that was never migrated.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	var version sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func (s *Store) apply(ctx context.Context, m migration) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range m.statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

func isMissingTable(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
