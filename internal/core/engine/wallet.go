package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/earnbuzz/earnbuzz/internal/core"
)

// WalletService reads balances and recent transactions.
type WalletService struct {
	Ledger       Ledger
	HistoryLimit int
}

// Summary returns the user's wallet and most recent transactions.
func (w *WalletService) Summary(ctx context.Context, userID string) (*core.WalletSummary, error) {
	if w == nil || w.Ledger == nil {
		return nil, errors.New("wallet service is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}

	wallet, err := w.Ledger.GetWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	limit := w.HistoryLimit
	if limit <= 0 {
		limit = 20
	}
	txns, err := w.Ledger.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return &core.WalletSummary{Wallet: wallet, Transactions: txns}, nil
}
