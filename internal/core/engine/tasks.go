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
	"github.com/earnbuzz/earnbuzz/internal/core/task"
	"github.com/earnbuzz/earnbuzz/internal/metrics"
)

// TaskStateStore stores per-user task progress.
type TaskStateStore interface {
	GetTaskState(ctx context.Context, userID string) (*task.State, error)
	PutTaskState(ctx context.Context, userID string, state task.State) error
}

// TaskResult is the outcome of a task transition.
type TaskResult struct {
	Task         task.Task
	Rejected     *task.Rejected
	VerifyEndsAt *time.Time
	Reward       int64
	Balance      int64
	Transaction  *core.Transaction
	At           time.Time
}

// TaskService runs the task flow against persisted state.
type TaskService struct {
	States  TaskStateStore
	Ledger  Ledger
	Catalog *task.Catalog
	Policy  task.Policy
	Clock   func() time.Time

	mu sync.Mutex
}

// Tasks returns the catalog.
func (s *TaskService) Tasks() []task.Task {
	if s == nil {
		return nil
	}
	return s.Catalog.Tasks()
}

// Board returns the user's task board.
func (s *TaskService) Board(ctx context.Context, userID string) ([]task.Entry, error) {
	if err := s.validate(userID); err != nil {
		return nil, err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadTicked(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return s.Policy.Board(s.Catalog, state, now), nil
}

// Begin starts verification of taskID.
func (s *TaskService) Begin(ctx context.Context, userID, taskID string) (*TaskResult, error) {
	if err := s.validate(userID); err != nil {
		return nil, err
	}
	t, ok := s.Catalog.Get(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadTicked(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	next, verifyEnd, rejected := s.Policy.Begin(state, t, now)
	if rejected != nil {
		metrics.RecordTaskRejection("begin", string(rejected.Reason))
		return &TaskResult{Task: t, Rejected: rejected, At: now}, nil
	}
	if err := s.States.PutTaskState(ctx, userID, next); err != nil {
		return nil, fmt.Errorf("persist task state: %w", err)
	}
	return &TaskResult{Task: t, VerifyEndsAt: &verifyEnd, At: now}, nil
}

// Complete finishes verification of taskID and credits its reward.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*TaskResult, error) {
	if err := s.validate(userID); err != nil {
		return nil, err
	}
	t, ok := s.Catalog.Get(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadTicked(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	next, reward, rejected := s.Policy.Complete(state, t, now)
	if rejected != nil {
		metrics.RecordTaskRejection("complete", string(rejected.Reason))
		return &TaskResult{Task: t, Rejected: rejected, At: now}, nil
	}
	txn, balance, err := s.commit(ctx, userID, next, reward, core.TaskRewardDescription(t.Platform), now)
	if err != nil {
		return nil, err
	}
	metrics.RecordTaskCompletion(t.ID)

	return &TaskResult{Task: t, Reward: reward, Balance: balance, Transaction: &txn, At: now}, nil
}

// commit credits the reward and stores next, in one transaction when the
// backend allows it.
func (s *TaskService) commit(ctx context.Context, userID string, next task.State, reward int64, description string, now time.Time) (core.Transaction, int64, error) {
	if committer, ok := s.Ledger.(TaskCommitter); ok && sharedBackend(s.States, s.Ledger) {
		txn, balance, err := committer.CreditTask(ctx, userID, next, reward, description, now)
		if err != nil {
			return core.Transaction{}, 0, fmt.Errorf("credit task reward: %w", err)
		}
		return txn, balance, nil
	}

	txn, balance, err := s.Ledger.Credit(ctx, userID, reward, description, now)
	if err != nil {
		return core.Transaction{}, 0, fmt.Errorf("credit task reward: %w", err)
	}
	if err := s.States.PutTaskState(ctx, userID, next); err != nil {
		logStaleState("task", userID, err)
	}
	return txn, balance, nil
}

func (s *TaskService) loadTicked(ctx context.Context, userID string, now time.Time) (task.State, error) {
	stored, err := s.States.GetTaskState(ctx, userID)
	if err != nil {
		return task.State{}, fmt.Errorf("load task state: %w", err)
	}
	var state task.State
	if stored != nil {
		state = *stored
	}

	ticked := task.Tick(state, now)
	if stored != nil && !reflect.DeepEqual(ticked, state) {
		if err := s.States.PutTaskState(ctx, userID, ticked); err != nil {
			return task.State{}, fmt.Errorf("persist task state: %w", err)
		}
	}
	return ticked, nil
}

func (s *TaskService) validate(userID string) error {
	if s == nil || s.States == nil || s.Ledger == nil || s.Catalog == nil {
		return errors.New("task service is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	return nil
}

func (s *TaskService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}
