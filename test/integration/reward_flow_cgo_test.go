//go:build cgo

package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/engine"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
	"github.com/earnbuzz/earnbuzz/internal/server"
	"github.com/earnbuzz/earnbuzz/internal/server/handlers"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type rewardHarness struct {
	ts    *http.Client
	base  string
	clock *manualClock
}

func newRewardHarness(t *testing.T) *rewardHarness {
	t.Helper()
	initLoggers(t)

	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	catalog, err := task.DefaultCatalog()
	require.NoError(t, err)

	clock := &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	api := &handlers.API{
		Claims: &engine.ClaimService{
			States: st,
			Ledger: st,
			Policy: claim.Policy{CreditAmount: 1000, Cooldown: time.Minute, BurstLimit: 2, Pause: 5 * time.Hour},
			Clock:  clock.Now,
		},
		Tasks: &engine.TaskService{
			States:  st,
			Ledger:  st,
			Catalog: catalog,
			Policy:  task.Policy{VerificationDelay: 20 * time.Second, Cooldown: 24 * time.Hour},
			Clock:   clock.Now,
		},
		Wallets: &engine.WalletService{Ledger: st, HistoryLimit: 10},
	}

	ts := serve(t, server.New("127.0.0.1", 0, server.WithAPI(api)))
	return &rewardHarness{ts: ts.Client(), base: ts.URL + "/api/users/", clock: clock}
}

func (h *rewardHarness) post(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	return call(t, h.ts, http.MethodPost, h.base+path, "", out)
}

func (h *rewardHarness) wallet(t *testing.T, userID string) core.WalletSummary {
	t.Helper()
	var summary core.WalletSummary
	resp := call(t, h.ts, http.MethodGet, h.base+userID+"/wallet", "", &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return summary
}

func TestClaimFlowThroughPause(t *testing.T) {
	h := newRewardHarness(t)
	const user = "ada"

	var first handlers.ClaimAttemptResponse
	resp := h.post(t, user+"/claim", &first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1000), first.CreditedAmount)
	assert.Equal(t, int64(1000), first.Balance)
	assert.False(t, first.TriggeredPause)

	var rejected handlers.ClaimRejectedResponse
	resp = h.post(t, user+"/claim", &rejected)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, claim.ReasonCoolingDown, rejected.Reason)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	h.clock.Advance(time.Minute)
	var second handlers.ClaimAttemptResponse
	resp = h.post(t, user+"/claim", &second)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, second.TriggeredPause)
	assert.Equal(t, int64(2000), second.Balance)
	require.NotNil(t, second.PauseEndsAtMs)

	h.clock.Advance(time.Minute)
	resp = h.post(t, user+"/claim", &rejected)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, claim.ReasonPaused, rejected.Reason)
	assert.Equal(t, *second.PauseEndsAtMs, rejected.RetryAtMs)

	h.clock.Advance(5 * time.Hour)
	var status handlers.ClaimStatusResponse
	resp = call(t, h.ts, http.MethodGet, h.base+user+"/claim", "", &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, status.CanClaim)
	assert.False(t, status.Paused)
	assert.Zero(t, status.ClaimCount)

	summary := h.wallet(t, user)
	assert.Equal(t, int64(2000), summary.Wallet.Balance)
	require.Len(t, summary.Transactions, 2)
	for _, txn := range summary.Transactions {
		assert.Equal(t, core.TransactionCredit, txn.Type)
		assert.Equal(t, int64(1000), txn.Amount)
	}
}

func TestTaskFlowCreditsOnceUntilCooldownEnds(t *testing.T) {
	h := newRewardHarness(t)
	const user = "obi"
	const taskPath = user + "/tasks/telegram-channel/"

	var rejected handlers.TaskRejectedResponse
	resp := h.post(t, taskPath+"complete", &rejected)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, task.ReasonNotStarted, rejected.Reason)

	var started handlers.TaskActionResponse
	resp = h.post(t, taskPath+"verify", &started)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, started.VerifyEndsAtMs)

	h.clock.Advance(10 * time.Second)
	resp = h.post(t, taskPath+"complete", &rejected)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, task.ReasonVerifying, rejected.Reason)
	assert.Equal(t, "10", resp.Header.Get("Retry-After"))

	h.clock.Advance(10 * time.Second)
	var done handlers.TaskActionResponse
	resp = h.post(t, taskPath+"complete", &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(5000), done.Reward)
	assert.Equal(t, int64(5000), done.Balance)

	resp = h.post(t, taskPath+"verify", &rejected)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, task.ReasonAlreadyCompleted, rejected.Reason)

	h.clock.Advance(24 * time.Hour)
	resp = h.post(t, taskPath+"verify", &started)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	summary := h.wallet(t, user)
	assert.Equal(t, int64(5000), summary.Wallet.Balance)
	require.Len(t, summary.Transactions, 1)
	assert.Equal(t, core.TaskRewardDescription("Telegram"), summary.Transactions[0].Description)
}

func TestRewardRoutesRejectUnknownTask(t *testing.T) {
	h := newRewardHarness(t)

	resp := h.post(t, "ada/tasks/no-such-task/verify", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWalletsAreIsolatedPerUser(t *testing.T) {
	h := newRewardHarness(t)

	for i := 0; i < 3; i++ {
		user := fmt.Sprintf("user-%d", i)
		resp := h.post(t, user+"/claim", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	for i := 0; i < 3; i++ {
		summary := h.wallet(t, fmt.Sprintf("user-%d", i))
		assert.Equal(t, int64(1000), summary.Wallet.Balance)
		assert.Len(t, summary.Transactions, 1)
	}

	empty := h.wallet(t, "nobody")
	assert.Zero(t, empty.Wallet.Balance)
	assert.Empty(t, empty.Transactions)
}
