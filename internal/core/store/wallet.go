package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/earnbuzz/earnbuzz/internal/core"
)

// GetWallet returns the wallet for a user. Unknown users have a zero balance.
func (s *Store) GetWallet(ctx context.Context, userID string) (core.Wallet, error) {
	if s == nil || s.DB == nil {
		return core.Wallet{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.Wallet{}, errors.New("user id is required")
	}

	var (
		balance   int64
		updatedAt int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT balance, updated_at
		FROM wallets
		WHERE user_id = ?
	`, userID)
	if err := row.Scan(&balance, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Wallet{UserID: userID}, nil
		}
		return core.Wallet{}, fmt.Errorf("fetch wallet: %w", err)
	}

	return core.Wallet{
		UserID:    userID,
		Balance:   balance,
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}, nil
}

// Credit adds amount to a user's balance and records the transaction
// atomically. It returns the recorded transaction and the new balance.
func (s *Store) Credit(ctx context.Context, userID string, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	return s.creditWith(ctx, userID, amount, description, at, nil)
}

// creditWith runs the wallet credit in one transaction. before, when set,
// writes additional rows inside the same transaction ahead of the credit.
func (s *Store) creditWith(ctx context.Context, userID string, amount int64, description string, at time.Time, before func(context.Context, execer) error) (core.Transaction, int64, error) {
	if s == nil || s.DB == nil {
		return core.Transaction{}, 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.Transaction{}, 0, errors.New("user id is required")
	}
	if amount <= 0 {
		return core.Transaction{}, 0, errors.New("amount must be positive")
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("begin wallet transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	if before != nil {
		if err := before(ctx, tx); err != nil {
			return core.Transaction{}, 0, err
		}
	}

	var balance int64
	row := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID)
	if err := row.Scan(&balance); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, 0, fmt.Errorf("fetch wallet: %w", err)
	}
	balance += amount

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = excluded.updated_at
	`, userID, balance, at.UnixMilli()); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("store wallet: %w", err)
	}

	txn := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        core.TransactionCredit,
		Description: description,
		Amount:      amount,
		CreatedAt:   at,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, description, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, string(txn.Type), txn.Description, txn.Amount, at.UnixMilli()); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("store transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("commit wallet transaction: %w", err)
	}
	return txn, balance, nil
}

// ListTransactions returns the most recent transactions for a user, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
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
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, type, description, amount, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	txns := []core.Transaction{}
	for rows.Next() {
		var (
			txn       core.Transaction
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&txn.ID, &kind, &txn.Description, &txn.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transactions: %w", err)
		}
		txn.UserID = userID
		txn.Type = core.TransactionType(kind)
		txn.CreatedAt = time.UnixMilli(createdAt).UTC()
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
