package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// GetTaskState returns stored task progress for a user, or nil when none exists.
func (s *Store) GetTaskState(ctx context.Context, userID string) (*task.State, error) {
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

	var completedJSON, cooldownsJSON, verifyingJSON string
	row := s.DB.QueryRowContext(ctx, `
		SELECT completed, cooldowns, verifying
		FROM task_state
		WHERE user_id = ?
	`, userID)
	if err := row.Scan(&completedJSON, &cooldownsJSON, &verifyingJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch task state: %w", err)
	}

	var record task.Record
	if err := json.Unmarshal([]byte(completedJSON), &record.Completed); err != nil {
		return nil, fmt.Errorf("decode completed tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(cooldownsJSON), &record.Cooldowns); err != nil {
		return nil, fmt.Errorf("decode task cooldowns: %w", err)
	}
	if err := json.Unmarshal([]byte(verifyingJSON), &record.Verifying); err != nil {
		return nil, fmt.Errorf("decode task verifications: %w", err)
	}

	state := record.State()
	return &state, nil
}

// PutTaskState persists task progress for a user.
func (s *Store) PutTaskState(ctx context.Context, userID string, state task.State) error {
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

	return writeTaskState(ctx, s.DB, userID, state)
}

// CreditTask stores task progress and credits the task reward in one
// transaction.
func (s *Store) CreditTask(ctx context.Context, userID string, state task.State, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	userID = strings.TrimSpace(userID)
	return s.creditWith(ctx, userID, amount, description, at, func(ctx context.Context, db execer) error {
		return writeTaskState(ctx, db, userID, state)
	})
}

func writeTaskState(ctx context.Context, db execer, userID string, state task.State) error {
	record := state.Record()
	completedJSON, err := json.Marshal(record.Completed)
	if err != nil {
		return fmt.Errorf("encode completed tasks: %w", err)
	}
	cooldownsJSON, err := json.Marshal(record.Cooldowns)
	if err != nil {
		return fmt.Errorf("encode task cooldowns: %w", err)
	}
	verifyingJSON, err := json.Marshal(record.Verifying)
	if err != nil {
		return fmt.Errorf("encode task verifications: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO task_state (user_id, completed, cooldowns, verifying, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			completed = excluded.completed,
			cooldowns = excluded.cooldowns,
			verifying = excluded.verifying,
			updated_at = excluded.updated_at
	`, userID, string(completedJSON), string(cooldownsJSON), string(verifyingJSON), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store task state: %w", err)
	}
	return nil
}
