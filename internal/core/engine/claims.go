package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/metrics"
)

// ClaimStateStore stores per-user claim state.
type ClaimStateStore interface {
	GetClaimState(ctx context.Context, userID string) (*claim.State, error)
	PutClaimState(ctx context.Context, userID string, state claim.State) error
}

// Ledger credits wallets and reads them back.
type Ledger interface {
	Credit(ctx context.Context, userID string, amount int64, description string, at time.Time) (core.Transaction, int64, error)
	GetWallet(ctx context.Context, userID string) (core.Wallet, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
}

// ClaimResult is the outcome of a claim attempt. Exactly one of Outcome and
// Rejected is meaningful.
type ClaimResult struct {
	Outcome     claim.Outcome
	Rejected    *claim.Rejected
	Snapshot    claim.Snapshot
	Balance     int64
	Transaction *core.Transaction
	At          time.Time
}

// ClaimService runs the claim limiter against persisted state and credits
// the wallet on success.
type ClaimService struct {
	States ClaimStateStore
	Ledger Ledger
	Policy claim.Policy
	Clock  func() time.Time
	// TrustClientClock accepts caller-reported instants.
	TrustClientClock bool

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// Status applies any elapsed pause and returns the current snapshot.
func (c *ClaimService) Status(ctx context.Context, userID string, reported *time.Time) (claim.Snapshot, error) {
	if err := c.validate(userID); err != nil {
		return claim.Snapshot{}, err
	}
	now := c.resolveNow(reported)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.loadTicked(ctx, userID, now)
	if err != nil {
		return claim.Snapshot{}, err
	}
	return claim.Inspect(state, now), nil
}

// Attempt tries to claim the periodic reward for userID.
func (c *ClaimService) Attempt(ctx context.Context, userID string, reported *time.Time) (*ClaimResult, error) {
	if err := c.validate(userID); err != nil {
		return nil, err
	}
	now := c.resolveNow(reported)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.loadTicked(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	next, outcome, rejected := c.Policy.Attempt(state, now)
	if rejected != nil {
		metrics.RecordClaim(string(rejected.Reason))
		return &ClaimResult{Rejected: rejected, Snapshot: claim.Inspect(state, now), At: now}, nil
	}

	txn, balance, err := c.commit(ctx, userID, next, outcome.CreditedAmount, now)
	if err != nil {
		return nil, err
	}

	if outcome.TriggeredPause {
		metrics.RecordClaim("pause_triggered")
	} else {
		metrics.RecordClaim("credited")
	}

	return &ClaimResult{
		Outcome:     outcome,
		Snapshot:    claim.Inspect(next, now),
		Balance:     balance,
		Transaction: &txn,
		At:          now,
	}, nil
}

// commit credits the reward and stores next. State is written only once the
// credit has gone through.
func (c *ClaimService) commit(ctx context.Context, userID string, next claim.State, amount int64, now time.Time) (core.Transaction, int64, error) {
	if committer, ok := c.Ledger.(ClaimCommitter); ok && sharedBackend(c.States, c.Ledger) {
		txn, balance, err := committer.CreditClaim(ctx, userID, next, amount, core.DescriptionClaimReward, now)
		if err != nil {
			return core.Transaction{}, 0, fmt.Errorf("credit claim reward: %w", err)
		}
		return txn, balance, nil
	}

	txn, balance, err := c.Ledger.Credit(ctx, userID, amount, core.DescriptionClaimReward, now)
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("credit claim reward: %w", err)
	}
	if err := c.States.PutClaimState(ctx, userID, next); err != nil {
		logStaleState("claim", userID, err)
	}
	return txn, balance, nil
}

// loadTicked loads state, applies Tick, and persists the result when Tick changed it.
func (c *ClaimService) loadTicked(ctx context.Context, userID string, now time.Time) (claim.State, error) {
	stored, err := c.States.GetClaimState(ctx, userID)
	if err != nil {
		return claim.State{}, fmt.Errorf("load claim state: %w", err)
	}
	var state claim.State
	if stored != nil {
		state = *stored
	}

	ticked := claim.Tick(state, now)
	if stored != nil && !reflect.DeepEqual(ticked, state) {
		if err := c.States.PutClaimState(ctx, userID, ticked); err != nil {
			return claim.State{}, fmt.Errorf("persist claim state: %w", err)
		}
	}
	return ticked, nil
}

func (c *ClaimService) validate(userID string) error {
	if c == nil || c.States == nil || c.Ledger == nil {
		return errors.New("claim service is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	return nil
}

func (c *ClaimService) resolveNow(reported *time.Time) time.Time {
	if c.TrustClientClock && reported != nil && !reported.IsZero() {
		return reported.UTC()
	}
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
