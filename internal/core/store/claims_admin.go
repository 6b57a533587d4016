package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core/claim"
)

type ClaimEntry struct {
	UserID    string      `json:"user_id"`
	State     claim.State `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type ClaimQuery struct {
	All    bool
	UserID string
	Prefix string
}

func (q ClaimQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.UserID) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --user, or --prefix")
}

func (q ClaimQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if userID := strings.TrimSpace(q.UserID); userID != "" {
		return "WHERE user_id = ?", []any{userID}, nil
	}
	prefix := strings.TrimSpace(q.Prefix)
	if prefix == "" {
		return "", nil, errors.New("prefix is required")
	}
	return "WHERE user_id LIKE ?", []any{prefix + "%"}, nil
}

func (s *Store) ListClaimStates(ctx context.Context, q ClaimQuery) ([]ClaimEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT user_id, claim_count, cooldown_ends_at, pause_ends_at, updated_at
		FROM claim_state
		%s
		ORDER BY user_id
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list claim states: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []ClaimEntry{}
	for rows.Next() {
		var (
			userID         string
			claimCount     int
			cooldownEndsAt sql.NullInt64
			pauseEndsAt    sql.NullInt64
			updatedAt      int64
		)
		if err := rows.Scan(&userID, &claimCount, &cooldownEndsAt, &pauseEndsAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan claim states: %w", err)
		}

		entries = append(entries, ClaimEntry{
			UserID: userID,
			State: claim.State{
				ClaimCount:     claimCount,
				CooldownEndsAt: fromNullMillis(cooldownEndsAt),
				PauseEndsAt:    fromNullMillis(pauseEndsAt),
			},
			UpdatedAt: time.UnixMilli(updatedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claim states: %w", err)
	}

	return entries, nil
}

func (s *Store) CountClaimStates(ctx context.Context, q ClaimQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM claim_state
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count claim states: %w", err)
	}
	return count, nil
}

// ResetClaimStates deletes matching claim state rows; affected users start fresh.
func (s *Store) ResetClaimStates(ctx context.Context, q ClaimQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM claim_state
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset claim states: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset claim states: %w", err)
	}
	return affected, nil
}
