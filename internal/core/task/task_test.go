package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleTask() Task {
	return Task{ID: "telegram-channel", Platform: "Telegram", Reward: 5000}
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	require.Equal(t, 6, catalog.Len())

	for _, task := range catalog.Tasks() {
		assert.Equal(t, int64(5000), task.Reward, task.ID)
		assert.NotEmpty(t, task.Link, task.ID)
	}

	got, ok := catalog.Get("facebook page")
	require.True(t, ok)
	assert.Equal(t, "Facebook", got.Platform)

	_, ok = catalog.Get("missing")
	assert.False(t, ok)
}

func TestParseCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     "tasks: []\n",
		"no id":     "tasks:\n  - platform: X\n    reward: 1\n",
		"no reward": "tasks:\n  - id: a\n",
		"duplicate": "tasks:\n  - id: a\n    reward: 1\n  - id: a\n    reward: 2\n",
		"malformed": "tasks: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog(name, []byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	doc := "tasks:\n  - id: x-follow\n    platform: X\n    reward: 250\n    link: https://x.com\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Len())
	got, ok := catalog.Get("x-follow")
	require.True(t, ok)
	assert.Equal(t, int64(250), got.Reward)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBeginAndComplete(t *testing.T) {
	p := DefaultPolicy()
	task := sampleTask()

	s, verifyEnd, rejected := p.Begin(State{}, task, t0)
	require.Nil(t, rejected)
	assert.Equal(t, t0.Add(20*time.Second), verifyEnd)

	_, _, rejected = p.Begin(s, task, t0.Add(time.Second))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonVerifying, rejected.Reason)

	_, reward, rejected := p.Complete(s, task, t0.Add(10*time.Second))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonVerifying, rejected.Reason)
	assert.Equal(t, verifyEnd, *rejected.RetryAt)
	assert.Zero(t, reward)

	done, reward, rejected := p.Complete(s, task, verifyEnd)
	require.Nil(t, rejected)
	assert.Equal(t, int64(5000), reward)
	assert.True(t, done.IsCompleted(task.ID))
	assert.NotContains(t, done.Verifying, task.ID)
	assert.Equal(t, verifyEnd.Add(24*time.Hour), done.Cooldowns[task.ID])

	_, _, rejected = p.Begin(done, task, verifyEnd.Add(time.Hour))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonAlreadyCompleted, rejected.Reason)

	_, _, rejected = p.Complete(done, task, verifyEnd.Add(time.Hour))
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonAlreadyCompleted, rejected.Reason)
}

func TestCompleteWithoutBegin(t *testing.T) {
	_, _, rejected := DefaultPolicy().Complete(State{}, sampleTask(), t0)
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonNotStarted, rejected.Reason)
	assert.Nil(t, rejected.RetryAt)
	assert.EqualError(t, rejected, "task telegram-channel rejected: not_started")
}

func TestBeginDuringCooldown(t *testing.T) {
	end := t0.Add(time.Hour)
	s := State{Cooldowns: map[string]time.Time{"telegram-channel": end}}
	_, _, rejected := DefaultPolicy().Begin(s, sampleTask(), t0)
	require.NotNil(t, rejected)
	assert.Equal(t, ReasonCoolingDown, rejected.Reason)
	assert.Equal(t, end, *rejected.RetryAt)
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	s := State{Verifying: map[string]time.Time{}, Cooldowns: map[string]time.Time{}}
	_, _, rejected := DefaultPolicy().Begin(s, sampleTask(), t0)
	require.Nil(t, rejected)
	assert.Empty(t, s.Verifying)
}

func TestTickReopensTask(t *testing.T) {
	p := DefaultPolicy()
	task := sampleTask()
	s, verifyEnd, _ := p.Begin(State{}, task, t0)
	s, _, _ = p.Complete(s, task, verifyEnd)

	same := Tick(s, verifyEnd.Add(23*time.Hour))
	assert.True(t, same.IsCompleted(task.ID))

	reopened := Tick(s, verifyEnd.Add(24*time.Hour))
	assert.False(t, reopened.IsCompleted(task.ID))
	assert.NotContains(t, reopened.Cooldowns, task.ID)
	assert.True(t, s.IsCompleted(task.ID))

	_, _, rejected := p.Begin(reopened, task, verifyEnd.Add(24*time.Hour))
	assert.Nil(t, rejected)
}

func TestBoard(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	p := DefaultPolicy()

	s, _, _ := p.Begin(State{}, Task{ID: "telegram-channel", Reward: 5000}, t0)
	s, _, _ = p.Begin(s, Task{ID: "tiktok-follow", Reward: 5000}, t0.Add(-30*time.Second))
	s, _, _ = p.Complete(s, Task{ID: "tiktok-follow", Reward: 5000}, t0)

	board := p.Board(catalog, s, t0.Add(5*time.Second))
	require.Len(t, board, catalog.Len())

	byID := map[string]Entry{}
	for _, e := range board {
		byID[e.Task.ID] = e
	}
	assert.Equal(t, StatusVerifying, byID["telegram-channel"].Status)
	assert.InDelta(t, 25.0, byID["telegram-channel"].Progress, 0.001)
	assert.Equal(t, StatusCompleted, byID["tiktok-follow"].Status)
	assert.NotNil(t, byID["tiktok-follow"].CooldownEndsAt)
	assert.Equal(t, StatusAvailable, byID["whatsapp-channel"].Status)

	ready := p.Board(catalog, s, t0.Add(time.Minute))
	for _, e := range ready {
		if e.Task.ID == "telegram-channel" {
			assert.Equal(t, StatusReady, e.Status)
			assert.Equal(t, 100.0, e.Progress)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := State{
		Completed: []string{"a"},
		Cooldowns: map[string]time.Time{"a": t0},
		Verifying: map[string]time.Time{"b": t0.Add(time.Second)},
	}
	r := s.Record()
	assert.Equal(t, t0.UnixMilli(), r.Cooldowns["a"])

	back := r.State()
	assert.Equal(t, s.Completed, back.Completed)
	assert.True(t, back.Cooldowns["a"].Equal(t0))
	assert.True(t, back.Verifying["b"].Equal(t0.Add(time.Second)))

	empty := State{}.Record()
	assert.NotNil(t, empty.Completed)
	assert.NotNil(t, empty.Cooldowns)

	dropped := Record{Cooldowns: map[string]int64{"x": 0}}.State()
	assert.Empty(t, dropped.Cooldowns)
}
