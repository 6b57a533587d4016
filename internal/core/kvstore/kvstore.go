// Package kvstore keeps per-user claim and task state in Redis, using the
// same scalar key layout the browser client persists locally.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// Key suffixes under <prefix>:<user>:.
const (
	KeyClaimCount     = "claim-count"
	KeyCooldownEnd    = "cooldown-end-time"
	KeyPauseEnd       = "pause-end-time"
	KeyCompletedTasks = "completed-tasks"
	KeyTaskCooldowns  = "task-cooldowns"
	KeyTaskVerifying  = "task-verifying"
)

const defaultPrefix = "earnbuzz"

// Store is a Redis-backed claim and task state store.
type Store struct {
	client *redis.Client
	prefix string
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis store is not initialized")
	}
	return s.client.Ping(ctx).Err()
}

// CheckHealth implements the health checker contract.
func (s *Store) CheckHealth(ctx context.Context) error {
	return s.Ping(ctx)
}

func (s *Store) key(userID, name string) string {
	return s.prefix + ":" + userID + ":" + name
}

// GetClaimState returns the stored claim state, or nil when no key exists.
func (s *Store) GetClaimState(ctx context.Context, userID string) (*claim.State, error) {
	userID, err := s.check(userID)
	if err != nil {
		return nil, err
	}

	values, err := s.client.MGet(ctx,
		s.key(userID, KeyClaimCount),
		s.key(userID, KeyCooldownEnd),
		s.key(userID, KeyPauseEnd),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch claim state: %w", err)
	}
	if values[0] == nil && values[1] == nil && values[2] == nil {
		return nil, nil
	}

	count, err := parseInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyClaimCount, err)
	}
	cooldown, err := parseInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyCooldownEnd, err)
	}
	pause, err := parseInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyPauseEnd, err)
	}

	return &claim.State{
		ClaimCount:     int(count),
		CooldownEndsAt: claim.FromMillis(&cooldown),
		PauseEndsAt:    claim.FromMillis(&pause),
	}, nil
}

// PutClaimState writes the claim keys in one transaction; unset deadlines are deleted.
func (s *Store) PutClaimState(ctx context.Context, userID string, state claim.State) error {
	userID, err := s.check(userID)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(userID, KeyClaimCount), strconv.Itoa(state.ClaimCount), 0)
		setOrDelete(ctx, pipe, s.key(userID, KeyCooldownEnd), claim.ToMillis(state.CooldownEndsAt))
		setOrDelete(ctx, pipe, s.key(userID, KeyPauseEnd), claim.ToMillis(state.PauseEndsAt))
		return nil
	})
	if err != nil {
		return fmt.Errorf("store claim state: %w", err)
	}
	return nil
}

// ResetClaimState deletes a user's claim keys.
func (s *Store) ResetClaimState(ctx context.Context, userID string) (int64, error) {
	userID, err := s.check(userID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.client.Del(ctx,
		s.key(userID, KeyClaimCount),
		s.key(userID, KeyCooldownEnd),
		s.key(userID, KeyPauseEnd),
	).Result()
	if err != nil {
		return 0, fmt.Errorf("reset claim state: %w", err)
	}
	return deleted, nil
}

// GetTaskState returns the stored task state, or nil when no key exists.
func (s *Store) GetTaskState(ctx context.Context, userID string) (*task.State, error) {
	userID, err := s.check(userID)
	if err != nil {
		return nil, err
	}

	values, err := s.client.MGet(ctx,
		s.key(userID, KeyCompletedTasks),
		s.key(userID, KeyTaskCooldowns),
		s.key(userID, KeyTaskVerifying),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch task state: %w", err)
	}
	if values[0] == nil && values[1] == nil && values[2] == nil {
		return nil, nil
	}

	var record task.Record
	if err := decodeJSON(values[0], &record.Completed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyCompletedTasks, err)
	}
	if err := decodeJSON(values[1], &record.Cooldowns); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyTaskCooldowns, err)
	}
	if err := decodeJSON(values[2], &record.Verifying); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyTaskVerifying, err)
	}

	state := record.State()
	return &state, nil
}

// PutTaskState writes the task keys in one transaction.
func (s *Store) PutTaskState(ctx context.Context, userID string, state task.State) error {
	userID, err := s.check(userID)
	if err != nil {
		return err
	}

	record := state.Record()
	completed, err := json.Marshal(record.Completed)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCompletedTasks, err)
	}
	cooldowns, err := json.Marshal(record.Cooldowns)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyTaskCooldowns, err)
	}
	verifying, err := json.Marshal(record.Verifying)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyTaskVerifying, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(userID, KeyCompletedTasks), string(completed), 0)
		pipe.Set(ctx, s.key(userID, KeyTaskCooldowns), string(cooldowns), 0)
		pipe.Set(ctx, s.key(userID, KeyTaskVerifying), string(verifying), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store task state: %w", err)
	}
	return nil
}

func (s *Store) check(userID string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("redis store is not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	return userID, nil
}

func setOrDelete(ctx context.Context, pipe redis.Pipeliner, key string, ms *int64) {
	if ms == nil {
		pipe.Del(ctx, key)
		return
	}
	pipe.Set(ctx, key, strconv.FormatInt(*ms, 10), 0)
}

func parseInt(value any) (int64, error) {
	if value == nil {
		return 0, nil
	}
	raw, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected value type %T", value)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func decodeJSON(value any, target any) error {
	if value == nil {
		return nil
	}
	raw, ok := value.(string)
	if !ok {
		return fmt.Errorf("unexpected value type %T", value)
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}
