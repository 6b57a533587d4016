package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetClaimState returns stored claim state for a user, or nil when none exists.
func (s *Store) GetClaimState(ctx context.Context, userID string) (*claim.State, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	var (
		claimCount     int
		cooldownEndsAt sql.NullInt64
		pauseEndsAt    sql.NullInt64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT claim_count, cooldown_ends_at, pause_ends_at
		FROM claim_state
		WHERE user_id = ?
	`, userID)

	if err := row.Scan(&claimCount, &cooldownEndsAt, &pauseEndsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch claim state: %w", err)
	}

	return &claim.State{
		ClaimCount:     claimCount,
		CooldownEndsAt: fromNullMillis(cooldownEndsAt),
		PauseEndsAt:    fromNullMillis(pauseEndsAt),
	}, nil
}

// PutClaimState persists claim state for a user.
func (s *Store) PutClaimState(ctx context.Context, userID string, state claim.State) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}

	return writeClaimState(ctx, s.DB, userID, state)
}

// CreditClaim stores the post-claim state and credits the reward in one
// transaction, so a failed credit leaves the limiter untouched.
func (s *Store) CreditClaim(ctx context.Context, userID string, state claim.State, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	userID = strings.TrimSpace(userID)
	return s.creditWith(ctx, userID, amount, description, at, func(ctx context.Context, db execer) error {
		return writeClaimState(ctx, db, userID, state)
	})
}

func writeClaimState(ctx context.Context, db execer, userID string, state claim.State) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO claim_state (user_id, claim_count, cooldown_ends_at, pause_ends_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			claim_count = excluded.claim_count,
			cooldown_ends_at = excluded.cooldown_ends_at,
			pause_ends_at = excluded.pause_ends_at,
			updated_at = excluded.updated_at
	`, userID, state.ClaimCount, toNullMillis(state.CooldownEndsAt), toNullMillis(state.PauseEndsAt), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store claim state: %w", err)
	}
	return nil
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	return claim.FromMillis(&v.Int64)
}
