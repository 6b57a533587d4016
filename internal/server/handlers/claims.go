package handlers

import (
	"net/http"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	apperrors "github.com/earnbuzz/earnbuzz/internal/errors"
)

// ClaimStatusResponse describes a user's claim limiter at request time.
type ClaimStatusResponse struct {
	UserID                   string `json:"user_id"`
	CanClaim                 bool   `json:"can_claim"`
	ClaimCount               int    `json:"claim_count"`
	Paused                   bool   `json:"paused"`
	CooldownEndsAtMs         *int64 `json:"cooldown_ends_at_ms,omitempty"`
	PauseEndsAtMs            *int64 `json:"pause_ends_at_ms,omitempty"`
	CooldownRemainingSeconds int64  `json:"cooldown_remaining_seconds"`
	PauseRemainingSeconds    int64  `json:"pause_remaining_seconds"`
	CooldownDisplay          string `json:"cooldown_display"`
	PauseDisplay             string `json:"pause_display"`
	Display                  string `json:"display"`
}

// ClaimAttemptRequest optionally carries the caller's clock.
type ClaimAttemptRequest struct {
	NowMs *int64 `json:"now_ms,omitempty"`
}

// ClaimAttemptResponse is returned for a credited claim.
type ClaimAttemptResponse struct {
	CreditedAmount   int64  `json:"credited_amount"`
	TriggeredPause   bool   `json:"triggered_pause"`
	ClaimCount       int    `json:"claim_count"`
	Balance          int64  `json:"balance"`
	TransactionID    string `json:"transaction_id,omitempty"`
	CooldownEndsAtMs *int64 `json:"cooldown_ends_at_ms,omitempty"`
	PauseEndsAtMs    *int64 `json:"pause_ends_at_ms,omitempty"`
}

// ClaimRejectedResponse is returned with 429 while the limiter blocks claims.
type ClaimRejectedResponse struct {
	Error     string       `json:"error"`
	Reason    claim.Reason `json:"reason"`
	RetryAtMs int64        `json:"retry_at_ms"`
}

// ClaimStatusHandler serves GET /api/users/{userID}/claim.
func (a *API) ClaimStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	snap, err := a.Claims.Status(r.Context(), userID, millis(r.URL.Query().Get("now_ms")))
	if err != nil {
		respondWithServiceError(w, r, err, "failed to load claim state")
		return
	}
	writeJSON(w, http.StatusOK, claimStatus(userID, snap))
}

// ClaimAttemptHandler serves POST /api/users/{userID}/claim.
func (a *API) ClaimAttemptHandler(w http.ResponseWriter, r *http.Request) {
	var req ClaimAttemptRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid claim request body"))
		return
	}

	res, err := a.Claims.Attempt(r.Context(), userIDParam(r), claim.FromMillis(req.NowMs))
	if err != nil {
		respondWithServiceError(w, r, err, "failed to process claim")
		return
	}

	if res.Rejected != nil {
		w.Header().Set("Retry-After", retryAfterSeconds(res.Rejected.RetryAt, res.At))
		writeJSON(w, http.StatusTooManyRequests, ClaimRejectedResponse{
			Error:     rejectionMessage(res.Rejected.Reason),
			Reason:    res.Rejected.Reason,
			RetryAtMs: res.Rejected.RetryAt.UnixMilli(),
		})
		return
	}

	resp := ClaimAttemptResponse{
		CreditedAmount:   res.Outcome.CreditedAmount,
		TriggeredPause:   res.Outcome.TriggeredPause,
		ClaimCount:       res.Snapshot.ClaimCount,
		Balance:          res.Balance,
		CooldownEndsAtMs: claim.ToMillis(res.Snapshot.CooldownEndsAt),
		PauseEndsAtMs:    claim.ToMillis(res.Snapshot.PauseEndsAt),
	}
	if res.Transaction != nil {
		resp.TransactionID = res.Transaction.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func claimStatus(userID string, snap claim.Snapshot) ClaimStatusResponse {
	return ClaimStatusResponse{
		UserID:                   userID,
		CanClaim:                 snap.CanClaim,
		ClaimCount:               snap.ClaimCount,
		Paused:                   snap.Paused(),
		CooldownEndsAtMs:         claim.ToMillis(snap.CooldownEndsAt),
		PauseEndsAtMs:            claim.ToMillis(snap.PauseEndsAt),
		CooldownRemainingSeconds: claim.CeilSeconds(snap.CooldownRemaining),
		PauseRemainingSeconds:    int64(snap.PauseRemaining / time.Second),
		CooldownDisplay:          claim.FormatCooldown(snap.CooldownRemaining),
		PauseDisplay:             claim.FormatPause(snap.PauseRemaining),
		Display:                  snap.Display(),
	}
}

func rejectionMessage(reason claim.Reason) string {
	switch reason {
	case claim.ReasonPaused:
		return "Claims are paused"
	case claim.ReasonCoolingDown:
		return "Claim is cooling down"
	default:
		return "Claim rejected"
	}
}
