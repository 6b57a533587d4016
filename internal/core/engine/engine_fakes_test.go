package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

type memoryClaimStore struct {
	state  map[string]claim.State
	puts   int
	putErr error
}

func (m *memoryClaimStore) GetClaimState(ctx context.Context, userID string) (*claim.State, error) {
	if m.state == nil {
		return nil, nil
	}
	if val, ok := m.state[userID]; ok {
		return &val, nil
	}
	return nil, nil
}

func (m *memoryClaimStore) PutClaimState(ctx context.Context, userID string, state claim.State) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.state == nil {
		m.state = make(map[string]claim.State)
	}
	m.state[userID] = state
	m.puts++
	return nil
}

type memoryTaskStore struct {
	state map[string]task.State
}

func (m *memoryTaskStore) GetTaskState(ctx context.Context, userID string) (*task.State, error) {
	if m.state == nil {
		return nil, nil
	}
	if val, ok := m.state[userID]; ok {
		return &val, nil
	}
	return nil, nil
}

func (m *memoryTaskStore) PutTaskState(ctx context.Context, userID string, state task.State) error {
	if m.state == nil {
		m.state = make(map[string]task.State)
	}
	m.state[userID] = state
	return nil
}

type memoryLedger struct {
	balances map[string]int64
	txns     map[string][]core.Transaction
	fail     bool
}

func (m *memoryLedger) Credit(ctx context.Context, userID string, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	if m.fail {
		return core.Transaction{}, 0, errors.New("ledger unavailable")
	}
	if m.balances == nil {
		m.balances = make(map[string]int64)
		m.txns = make(map[string][]core.Transaction)
	}
	m.balances[userID] += amount
	txn := core.Transaction{
		ID:          fmt.Sprintf("txn-%d", len(m.txns[userID])+1),
		UserID:      userID,
		Type:        core.TransactionCredit,
		Description: description,
		Amount:      amount,
		CreatedAt:   at,
	}
	m.txns[userID] = append([]core.Transaction{txn}, m.txns[userID]...)
	return txn, m.balances[userID], nil
}

func (m *memoryLedger) GetWallet(ctx context.Context, userID string) (core.Wallet, error) {
	return core.Wallet{UserID: userID, Balance: m.balances[userID]}, nil
}

func (m *memoryLedger) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	txns := m.txns[userID]
	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

// committingBackend serves claim state, task state and the ledger from one
// object and writes state together with each credit.
type committingBackend struct {
	memoryClaimStore
	memoryTaskStore
	memoryLedger
	commits int
}

func (b *committingBackend) CreditClaim(ctx context.Context, userID string, state claim.State, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	txn, balance, err := b.memoryLedger.Credit(ctx, userID, amount, description, at)
	if err != nil {
		return core.Transaction{}, 0, err
	}
	if b.memoryClaimStore.state == nil {
		b.memoryClaimStore.state = make(map[string]claim.State)
	}
	b.memoryClaimStore.state[userID] = state
	b.commits++
	return txn, balance, nil
}

func (b *committingBackend) CreditTask(ctx context.Context, userID string, state task.State, amount int64, description string, at time.Time) (core.Transaction, int64, error) {
	txn, balance, err := b.memoryLedger.Credit(ctx, userID, amount, description, at)
	if err != nil {
		return core.Transaction{}, 0, err
	}
	if b.memoryTaskStore.state == nil {
		b.memoryTaskStore.state = make(map[string]task.State)
	}
	b.memoryTaskStore.state[userID] = state
	b.commits++
	return txn, balance, nil
}
