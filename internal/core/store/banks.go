package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
)

const bankDirectoryProvider = "paystack"

// BankDirectoryCache persists the bank directory snapshot so several server
// processes can share one upstream fetch.
type BankDirectoryCache struct {
	store *Store
}

// BankDirectoryCache returns a paystack.DirectoryCache backed by this store.
func (s *Store) BankDirectoryCache() *BankDirectoryCache {
	return &BankDirectoryCache{store: s}
}

func (c *BankDirectoryCache) Load(ctx context.Context) (*paystack.Snapshot, error) {
	if c == nil || c.store == nil || c.store.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		banksJSON string
		fetchedAt int64
	)
	row := c.store.DB.QueryRowContext(ctx, `
		SELECT banks, fetched_at
		FROM bank_directory_cache
		WHERE provider = ?
	`, bankDirectoryProvider)
	if err := row.Scan(&banksJSON, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch bank directory: %w", err)
	}

	banks := []paystack.Bank{}
	if err := json.Unmarshal([]byte(banksJSON), &banks); err != nil {
		return nil, fmt.Errorf("decode bank directory: %w", err)
	}

	return &paystack.Snapshot{FetchedAt: time.UnixMilli(fetchedAt).UTC(), Banks: banks}, nil
}

func (c *BankDirectoryCache) Save(ctx context.Context, snapshot paystack.Snapshot) error {
	if c == nil || c.store == nil || c.store.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	banks := snapshot.Banks
	if banks == nil {
		banks = []paystack.Bank{}
	}
	payload, err := json.Marshal(banks)
	if err != nil {
		return fmt.Errorf("encode bank directory: %w", err)
	}

	_, err = c.store.DB.ExecContext(ctx, `
		INSERT INTO bank_directory_cache (provider, banks, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			banks = excluded.banks,
			fetched_at = excluded.fetched_at
	`, bankDirectoryProvider, string(payload), snapshot.FetchedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store bank directory: %w", err)
	}
	return nil
}

var _ paystack.DirectoryCache = (*BankDirectoryCache)(nil)
