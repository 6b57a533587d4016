// Package claim implements the periodic reward claim limiter.
//
// The limiter is a pure state machine: every function takes the caller's
// notion of "now" and returns a new State. Persistence and scheduling are the
// caller's concern.
package claim

import (
	"time"
)

// Default limiter settings.
const (
	DefaultCreditAmount int64 = 1000
	DefaultCooldown           = 60 * time.Second
	DefaultBurstLimit         = 50
	DefaultPause              = 5 * time.Hour
)

// Reason explains why a claim was rejected.
type Reason string

const (
	ReasonPaused      Reason = "paused"
	ReasonCoolingDown Reason = "cooling_down"
)

// State is the per-user limiter state.
type State struct {
	ClaimCount     int        `json:"claim_count"`
	CooldownEndsAt *time.Time `json:"cooldown_ends_at,omitempty"`
	PauseEndsAt    *time.Time `json:"pause_ends_at,omitempty"`
}

// Outcome describes a successful claim.
type Outcome struct {
	CreditedAmount int64 `json:"credited_amount"`
	TriggeredPause bool  `json:"triggered_pause"`
}

// Rejected is returned when a claim cannot proceed yet.
type Rejected struct {
	Reason  Reason    `json:"reason"`
	RetryAt time.Time `json:"retry_at"`
}

// Error implements error so a rejection can travel through error returns.
func (r *Rejected) Error() string {
	if r == nil {
		return ""
	}
	return "claim rejected: " + string(r.Reason)
}

// RetryAfter returns the wait until RetryAt, never negative.
func (r *Rejected) RetryAfter(now time.Time) time.Duration {
	if r == nil {
		return 0
	}
	return remaining(&r.RetryAt, now)
}

// Policy holds the tunable limiter constants.
type Policy struct {
	CreditAmount int64
	Cooldown     time.Duration
	BurstLimit   int
	Pause        time.Duration
}

// DefaultPolicy returns the standard claim policy.
func DefaultPolicy() Policy {
	return Policy{
		CreditAmount: DefaultCreditAmount,
		Cooldown:     DefaultCooldown,
		BurstLimit:   DefaultBurstLimit,
		Pause:        DefaultPause,
	}
}

// Normalize fills zero or negative fields with defaults.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.CreditAmount <= 0 {
		p.CreditAmount = def.CreditAmount
	}
	if p.Cooldown <= 0 {
		p.Cooldown = def.Cooldown
	}
	if p.BurstLimit <= 0 {
		p.BurstLimit = def.BurstLimit
	}
	if p.Pause <= 0 {
		p.Pause = def.Pause
	}
	return p
}

// CanClaim reports whether neither the pause nor the cooldown is active.
func CanClaim(s State, now time.Time) bool {
	return !active(s.PauseEndsAt, now) && !active(s.CooldownEndsAt, now)
}

// Attempt applies a claim with the default policy.
func Attempt(s State, now time.Time) (State, Outcome, *Rejected) {
	return DefaultPolicy().Attempt(s, now)
}

// Attempt applies a claim at now. On rejection the returned state equals s.
func (p Policy) Attempt(s State, now time.Time) (State, Outcome, *Rejected) {
	p = p.Normalize()

	if active(s.PauseEndsAt, now) {
		return s, Outcome{}, &Rejected{Reason: ReasonPaused, RetryAt: *s.PauseEndsAt}
	}
	if active(s.CooldownEndsAt, now) {
		return s, Outcome{}, &Rejected{Reason: ReasonCoolingDown, RetryAt: *s.CooldownEndsAt}
	}

	next := State{ClaimCount: s.ClaimCount}
	if next.ClaimCount < 0 {
		next.ClaimCount = 0
	}
	next.ClaimCount++

	if next.ClaimCount >= p.BurstLimit {
		next.ClaimCount = p.BurstLimit
		pauseEnd := now.Add(p.Pause)
		next.PauseEndsAt = &pauseEnd
		return next, Outcome{CreditedAmount: p.CreditAmount, TriggeredPause: true}, nil
	}

	cooldownEnd := now.Add(p.Cooldown)
	next.CooldownEndsAt = &cooldownEnd
	return next, Outcome{CreditedAmount: p.CreditAmount}, nil
}

// Tick clears an elapsed pause, resetting the burst counter and cooldown.
// It is the only transition that lowers ClaimCount.
func Tick(s State, now time.Time) State {
	if s.PauseEndsAt == nil || now.Before(*s.PauseEndsAt) {
		return s
	}
	return State{}
}

// Snapshot is a read-only view of the limiter at a given instant.
type Snapshot struct {
	CanClaim          bool          `json:"can_claim"`
	ClaimCount        int           `json:"claim_count"`
	CooldownEndsAt    *time.Time    `json:"cooldown_ends_at,omitempty"`
	PauseEndsAt       *time.Time    `json:"pause_ends_at,omitempty"`
	CooldownRemaining time.Duration `json:"cooldown_remaining"`
	PauseRemaining    time.Duration `json:"pause_remaining"`
}

// Paused reports whether the extended pause is in effect.
func (s Snapshot) Paused() bool {
	return s.PauseRemaining > 0
}

// Display renders the countdown shown next to the claim button: the pause
// when active, otherwise the cooldown.
func (s Snapshot) Display() string {
	if s.Paused() {
		return FormatPause(s.PauseRemaining)
	}
	return FormatCooldown(s.CooldownRemaining)
}

// Inspect returns a snapshot of s at now without mutating it.
func Inspect(s State, now time.Time) Snapshot {
	snap := Snapshot{
		CanClaim:       CanClaim(s, now),
		ClaimCount:     s.ClaimCount,
		CooldownEndsAt: s.CooldownEndsAt,
		PauseEndsAt:    s.PauseEndsAt,
		PauseRemaining: remaining(s.PauseEndsAt, now),
	}
	// Pause dominates the cooldown display.
	if snap.PauseRemaining == 0 {
		snap.CooldownRemaining = remaining(s.CooldownEndsAt, now)
	}
	return snap
}

func active(deadline *time.Time, now time.Time) bool {
	return deadline != nil && deadline.After(now)
}

func remaining(deadline *time.Time, now time.Time) time.Duration {
	if deadline == nil {
		return 0
	}
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
