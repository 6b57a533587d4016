// Package task implements the social task reward flow: a short verification
// countdown followed by a reward and a per-task cooldown.
//
// Like the claim limiter, every transition is a pure function of the state
// and a caller-supplied "now".
package task

import (
	"slices"
	"sort"
	"time"
)

const (
	DefaultVerificationDelay = 20 * time.Second
	DefaultCooldown          = 24 * time.Hour
)

// Reason explains why a task transition was rejected.
type Reason string

const (
	ReasonAlreadyCompleted Reason = "already_completed"
	ReasonCoolingDown      Reason = "cooling_down"
	ReasonVerifying        Reason = "verifying"
	ReasonNotStarted       Reason = "not_started"
)

// Status is the per-task state shown on the task board.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusVerifying   Status = "verifying"
	StatusReady       Status = "ready"
	StatusCompleted   Status = "completed"
	StatusCoolingDown Status = "cooling_down"
)

// State is the per-user task progress.
type State struct {
	Completed []string             `json:"completed"`
	Cooldowns map[string]time.Time `json:"cooldowns"`
	Verifying map[string]time.Time `json:"verifying"`
}

// Rejected is returned when a task transition cannot proceed.
type Rejected struct {
	Reason  Reason     `json:"reason"`
	TaskID  string     `json:"task_id"`
	RetryAt *time.Time `json:"retry_at,omitempty"`
}

func (r *Rejected) Error() string {
	if r == nil {
		return ""
	}
	return "task " + r.TaskID + " rejected: " + string(r.Reason)
}

// Policy holds the task timing constants.
type Policy struct {
	VerificationDelay time.Duration
	Cooldown          time.Duration
}

// DefaultPolicy returns the standard task timings.
func DefaultPolicy() Policy {
	return Policy{VerificationDelay: DefaultVerificationDelay, Cooldown: DefaultCooldown}
}

// Normalize fills zero or negative fields with defaults.
func (p Policy) Normalize() Policy {
	if p.VerificationDelay <= 0 {
		p.VerificationDelay = DefaultVerificationDelay
	}
	if p.Cooldown <= 0 {
		p.Cooldown = DefaultCooldown
	}
	return p
}

// IsCompleted reports whether id is in the completed list.
func (s State) IsCompleted(id string) bool {
	return slices.Contains(s.Completed, id)
}

// Begin starts the verification countdown for t.
func (p Policy) Begin(s State, t Task, now time.Time) (State, time.Time, *Rejected) {
	p = p.Normalize()

	if s.IsCompleted(t.ID) {
		return s, time.Time{}, &Rejected{Reason: ReasonAlreadyCompleted, TaskID: t.ID, RetryAt: deadline(s.Cooldowns, t.ID)}
	}
	if end, ok := s.Cooldowns[t.ID]; ok && end.After(now) {
		return s, time.Time{}, &Rejected{Reason: ReasonCoolingDown, TaskID: t.ID, RetryAt: &end}
	}
	if end, ok := s.Verifying[t.ID]; ok {
		return s, time.Time{}, &Rejected{Reason: ReasonVerifying, TaskID: t.ID, RetryAt: &end}
	}

	next := s.clone()
	verifyEnd := now.Add(p.VerificationDelay)
	next.Verifying[t.ID] = verifyEnd
	return next, verifyEnd, nil
}

// Complete finishes a verification whose countdown has elapsed and returns
// the reward to credit.
func (p Policy) Complete(s State, t Task, now time.Time) (State, int64, *Rejected) {
	p = p.Normalize()

	if s.IsCompleted(t.ID) {
		return s, 0, &Rejected{Reason: ReasonAlreadyCompleted, TaskID: t.ID, RetryAt: deadline(s.Cooldowns, t.ID)}
	}
	end, ok := s.Verifying[t.ID]
	if !ok {
		return s, 0, &Rejected{Reason: ReasonNotStarted, TaskID: t.ID}
	}
	if end.After(now) {
		return s, 0, &Rejected{Reason: ReasonVerifying, TaskID: t.ID, RetryAt: &end}
	}

	next := s.clone()
	delete(next.Verifying, t.ID)
	next.Completed = append(next.Completed, t.ID)
	next.Cooldowns[t.ID] = now.Add(p.Cooldown)
	return next, t.Reward, nil
}

// Tick drops elapsed cooldowns and reopens the tasks they guarded.
func Tick(s State, now time.Time) State {
	var expired []string
	for id, end := range s.Cooldowns {
		if !end.After(now) {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return s
	}

	next := s.clone()
	for _, id := range expired {
		delete(next.Cooldowns, id)
	}
	next.Completed = slices.DeleteFunc(next.Completed, func(id string) bool {
		return slices.Contains(expired, id)
	})
	return next
}

// Entry is one row of a user's task board.
type Entry struct {
	Task           Task       `json:"task"`
	Status         Status     `json:"status"`
	VerifyEndsAt   *time.Time `json:"verify_ends_at,omitempty"`
	CooldownEndsAt *time.Time `json:"cooldown_ends_at,omitempty"`
	// Progress is the verification progress in percent.
	Progress float64 `json:"progress"`
}

// Board renders the catalog against s at now.
func (p Policy) Board(c *Catalog, s State, now time.Time) []Entry {
	p = p.Normalize()
	tasks := c.Tasks()
	entries := make([]Entry, 0, len(tasks))
	for _, t := range tasks {
		entry := Entry{Task: t, Status: StatusAvailable}
		if end, ok := s.Cooldowns[t.ID]; ok && end.After(now) {
			end := end
			entry.CooldownEndsAt = &end
			entry.Status = StatusCoolingDown
		}
		if s.IsCompleted(t.ID) {
			entry.Status = StatusCompleted
			entry.Progress = 100
		} else if end, ok := s.Verifying[t.ID]; ok {
			end := end
			entry.VerifyEndsAt = &end
			entry.Progress = progress(end, p.VerificationDelay, now)
			if end.After(now) {
				entry.Status = StatusVerifying
			} else {
				entry.Status = StatusReady
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// CompletedIDs returns the completed task ids in sorted order.
func (s State) CompletedIDs() []string {
	out := slices.Clone(s.Completed)
	sort.Strings(out)
	return out
}

func (s State) clone() State {
	next := State{
		Completed: slices.Clone(s.Completed),
		Cooldowns: make(map[string]time.Time, len(s.Cooldowns)+1),
		Verifying: make(map[string]time.Time, len(s.Verifying)+1),
	}
	for k, v := range s.Cooldowns {
		next.Cooldowns[k] = v
	}
	for k, v := range s.Verifying {
		next.Verifying[k] = v
	}
	return next
}

func deadline(m map[string]time.Time, id string) *time.Time {
	end, ok := m[id]
	if !ok {
		return nil
	}
	return &end
}

func progress(end time.Time, delay time.Duration, now time.Time) float64 {
	if delay <= 0 || !end.After(now) {
		return 100
	}
	start := end.Add(-delay)
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(delay) * 100
}
