package engine

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

// ClaimCommitter writes claim state and credits the claim reward in a single
// transaction. A ledger that also serves as the claim state store can
// implement it.
type ClaimCommitter interface {
	CreditClaim(ctx context.Context, userID string, state claim.State, amount int64, description string, at time.Time) (core.Transaction, int64, error)
}

// TaskCommitter is the task counterpart of ClaimCommitter.
type TaskCommitter interface {
	CreditTask(ctx context.Context, userID string, state task.State, amount int64, description string, at time.Time) (core.Transaction, int64, error)
}

// sharedBackend reports whether states and ledger are the same object, in
// which case one transaction can cover both.
func sharedBackend(states, ledger any) bool {
	if states == nil || ledger == nil {
		return false
	}
	if !reflect.TypeOf(states).Comparable() || !reflect.TypeOf(ledger).Comparable() {
		return false
	}
	return states == ledger
}

// logStaleState records a state write that failed after the wallet was
// credited. The reward stands; the limiter catches up on the next write.
func logStaleState(kind, userID string, err error) {
	if observability.ServerLogger == nil {
		return
	}
	observability.ServerLogger.Warn("Reward credited but state write failed",
		zap.String("kind", kind),
		zap.String("user_id", userID),
		zap.Error(err))
}
