package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func TestCanClaim(t *testing.T) {
	t.Run("FreshState", func(t *testing.T) {
		assert.True(t, CanClaim(State{}, t0))
	})

	t.Run("PauseDominatesCooldown", func(t *testing.T) {
		states := []State{
			{PauseEndsAt: at(t0.Add(time.Second))},
			{PauseEndsAt: at(t0.Add(time.Hour)), CooldownEndsAt: at(t0.Add(-time.Hour))},
			{PauseEndsAt: at(t0.Add(time.Hour)), CooldownEndsAt: at(t0.Add(time.Minute))},
		}
		for _, s := range states {
			assert.False(t, CanClaim(s, t0))
		}
	})

	t.Run("ElapsedDeadlines", func(t *testing.T) {
		s := State{
			ClaimCount:     3,
			CooldownEndsAt: at(t0.Add(-time.Millisecond)),
			PauseEndsAt:    at(t0.Add(-time.Hour)),
		}
		assert.True(t, CanClaim(s, t0))
	})

	t.Run("DeadlineEqualsNow", func(t *testing.T) {
		assert.True(t, CanClaim(State{CooldownEndsAt: at(t0)}, t0))
	})

	t.Run("CooldownActive", func(t *testing.T) {
		assert.False(t, CanClaim(State{CooldownEndsAt: at(t0.Add(time.Second))}, t0))
	})
}

func TestAttemptScenario(t *testing.T) {
	s, outcome, rejected := Attempt(State{}, t0)
	require.Nil(t, rejected)
	assert.Equal(t, int64(1000), outcome.CreditedAmount)
	assert.False(t, outcome.TriggeredPause)
	require.NotNil(t, s.CooldownEndsAt)
	assert.Equal(t, t0.UnixMilli()+60000, s.CooldownEndsAt.UnixMilli())
	assert.Nil(t, s.PauseEndsAt)
	assert.Equal(t, 1, s.ClaimCount)

	again, _, rejected := Attempt(s, t0.Add(30*time.Second))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonCoolingDown, rejected.Reason)
	assert.Equal(t, t0.UnixMilli()+60000, rejected.RetryAt.UnixMilli())
	assert.Equal(t, 30*time.Second, rejected.RetryAfter(t0.Add(30*time.Second)))
	assert.Equal(t, s, again)

	next, outcome, rejected := Attempt(s, t0.Add(60001*time.Millisecond))
	require.Nil(t, rejected)
	assert.Equal(t, int64(1000), outcome.CreditedAmount)
	assert.Equal(t, 2, next.ClaimCount)
}

func TestAttemptBurstTriggersPause(t *testing.T) {
	s := State{}
	now := t0
	for i := 1; i <= 49; i++ {
		var outcome Outcome
		var rejected *Rejected
		s, outcome, rejected = Attempt(s, now)
		require.Nil(t, rejected, "claim %d", i)
		require.False(t, outcome.TriggeredPause, "claim %d", i)
		require.Nil(t, s.PauseEndsAt, "claim %d", i)
		require.Equal(t, i, s.ClaimCount)
		now = s.CooldownEndsAt.Add(time.Millisecond)
	}

	s, outcome, rejected := Attempt(s, now)
	require.Nil(t, rejected)
	assert.True(t, outcome.TriggeredPause)
	assert.Equal(t, int64(1000), outcome.CreditedAmount)
	assert.Equal(t, 50, s.ClaimCount)
	require.NotNil(t, s.PauseEndsAt)
	assert.Equal(t, now.Add(5*time.Hour), *s.PauseEndsAt)
	assert.Nil(t, s.CooldownEndsAt)

	_, _, rejected = Attempt(s, now.Add(time.Hour))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonPaused, rejected.Reason)
	assert.Equal(t, *s.PauseEndsAt, rejected.RetryAt)
}

func TestPauseRejectionWinsOverCooldown(t *testing.T) {
	s := State{
		ClaimCount:     50,
		CooldownEndsAt: at(t0.Add(time.Minute)),
		PauseEndsAt:    at(t0.Add(time.Hour)),
	}
	_, _, rejected := Attempt(s, t0)
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonPaused, rejected.Reason)
	assert.Equal(t, t0.Add(time.Hour), rejected.RetryAt)
}

func TestCoolingDownLeavesCountUnchanged(t *testing.T) {
	s := State{ClaimCount: 7, CooldownEndsAt: at(t0.Add(10 * time.Second))}
	next, outcome, rejected := Attempt(s, t0)
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonCoolingDown, rejected.Reason)
	assert.Equal(t, 7, next.ClaimCount)
	assert.Equal(t, Outcome{}, outcome)
	assert.EqualError(t, rejected, "claim rejected: cooling_down")
}

func TestTick(t *testing.T) {
	pauseEnd := t0.Add(5 * time.Hour)
	paused := State{ClaimCount: 50, PauseEndsAt: at(pauseEnd), CooldownEndsAt: at(t0)}

	t.Run("BeforePauseEnds", func(t *testing.T) {
		assert.Equal(t, paused, Tick(paused, pauseEnd.Add(-time.Millisecond)))
	})

	t.Run("AtPauseEnd", func(t *testing.T) {
		assert.Equal(t, State{}, Tick(paused, pauseEnd))
	})

	t.Run("NoPauseNoChange", func(t *testing.T) {
		s := State{ClaimCount: 12, CooldownEndsAt: at(t0.Add(-time.Hour))}
		assert.Equal(t, s, Tick(s, t0))
	})

	t.Run("ClaimAfterReset", func(t *testing.T) {
		s := Tick(paused, pauseEnd.Add(time.Second))
		assert.Equal(t, 0, s.ClaimCount)

		now := pauseEnd.Add(2 * time.Second)
		next, outcome, rejected := Attempt(s, now)
		require.Nil(t, rejected)
		assert.False(t, outcome.TriggeredPause)
		assert.Equal(t, 1, next.ClaimCount)
		require.NotNil(t, next.CooldownEndsAt)
		assert.Equal(t, now.Add(60*time.Second), *next.CooldownEndsAt)
		assert.Nil(t, next.PauseEndsAt)
	})
}

func TestMalformedState(t *testing.T) {
	t.Run("NegativeCount", func(t *testing.T) {
		s, _, rejected := Attempt(State{ClaimCount: -4}, t0)
		require.Nil(t, rejected)
		assert.Equal(t, 1, s.ClaimCount)
	})

	t.Run("CountAboveBurst", func(t *testing.T) {
		s, outcome, rejected := Attempt(State{ClaimCount: 75}, t0)
		require.Nil(t, rejected)
		assert.True(t, outcome.TriggeredPause)
		assert.Equal(t, 50, s.ClaimCount)
		require.NotNil(t, s.PauseEndsAt)
	})
}

func TestPolicy(t *testing.T) {
	p := Policy{CreditAmount: 250, Cooldown: 10 * time.Second, BurstLimit: 2, Pause: time.Hour}

	s, outcome, rejected := p.Attempt(State{}, t0)
	require.Nil(t, rejected)
	assert.Equal(t, int64(250), outcome.CreditedAmount)
	assert.Equal(t, t0.Add(10*time.Second), *s.CooldownEndsAt)

	s, outcome, rejected = p.Attempt(s, t0.Add(11*time.Second))
	require.Nil(t, rejected)
	assert.True(t, outcome.TriggeredPause)
	assert.Equal(t, t0.Add(11*time.Second+time.Hour), *s.PauseEndsAt)

	assert.Equal(t, DefaultPolicy(), Policy{}.Normalize())
}

func TestInspect(t *testing.T) {
	s := State{
		ClaimCount:     50,
		CooldownEndsAt: at(t0.Add(30 * time.Second)),
		PauseEndsAt:    at(t0.Add(2*time.Hour + 3*time.Minute + 4*time.Second)),
	}
	snap := Inspect(s, t0)
	assert.False(t, snap.CanClaim)
	assert.True(t, snap.Paused())
	assert.Equal(t, time.Duration(0), snap.CooldownRemaining)
	assert.Equal(t, "2h 3m 4s", snap.Display())

	cooling := Inspect(State{ClaimCount: 3, CooldownEndsAt: at(t0.Add(42 * time.Second))}, t0)
	assert.False(t, cooling.Paused())
	assert.Equal(t, "0:42", cooling.Display())

	idle := Inspect(State{}, t0)
	assert.True(t, idle.CanClaim)
	assert.Equal(t, "0:00", idle.Display())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1:00", FormatCooldown(60*time.Second))
	assert.Equal(t, "0:05", FormatCooldown(4500*time.Millisecond))
	assert.Equal(t, "0:00", FormatCooldown(-time.Second))
	assert.Equal(t, "5h 0m 0s", FormatPause(5*time.Hour))
	assert.Equal(t, "0h 1m 1s", FormatPause(61999*time.Millisecond))
	assert.Equal(t, "0h 0m 0s", FormatPause(-time.Minute))

	assert.Equal(t, int64(45), CeilSeconds(44500*time.Millisecond))
	assert.Equal(t, int64(60), CeilSeconds(time.Minute))
	assert.Equal(t, int64(1), CeilSeconds(time.Nanosecond))
	assert.Zero(t, CeilSeconds(-time.Second))

	ms := t0.UnixMilli()
	require.NotNil(t, FromMillis(&ms))
	assert.Equal(t, ms, *ToMillis(FromMillis(&ms)))
	zero := int64(0)
	assert.Nil(t, FromMillis(&zero))
	assert.Nil(t, FromMillis(nil))
	assert.Nil(t, ToMillis(nil))
}
