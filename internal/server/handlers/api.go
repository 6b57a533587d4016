package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/engine"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	apperrors "github.com/earnbuzz/earnbuzz/internal/errors"
)

// API bundles the services behind the /api routes. Nil members leave their
// routes unregistered; the loan quote route is always served and verifies
// payout accounts only when Directory and Resolver are set.
type API struct {
	Claims    *engine.ClaimService
	Tasks     *engine.TaskService
	Wallets   *engine.WalletService
	Directory *paystack.Directory
	Resolver  *paystack.Resolver
}

// Mount registers the API routes on r.
func (a *API) Mount(r chi.Router) {
	if a == nil {
		return
	}
	if a.Directory != nil {
		r.Get("/banks", a.BanksHandler)
	}
	if a.Resolver != nil {
		r.Post("/verify-account", a.VerifyAccountHandler)
	}
	if a.Tasks != nil {
		r.Get("/tasks", a.TaskCatalogHandler)
	}
	r.Post("/loan/quote", a.LoanQuoteHandler)

	r.Route("/users/{userID}", func(r chi.Router) {
		if a.Claims != nil {
			r.Get("/claim", a.ClaimStatusHandler)
			r.Post("/claim", a.ClaimAttemptHandler)
		}
		if a.Tasks != nil {
			r.Get("/tasks", a.TaskBoardHandler)
			r.Post("/tasks/{taskID}/verify", a.TaskVerifyHandler)
			r.Post("/tasks/{taskID}/complete", a.TaskCompleteHandler)
		}
		if a.Wallets != nil {
			r.Get("/wallet", a.WalletHandler)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeOptionalJSON decodes r's body into dst. An empty body is not an error.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondWithServiceError maps engine failures onto error envelopes.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, engine.ErrUserRequired):
		respondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
	case errors.Is(err, engine.ErrUnknownTask):
		respondWithError(w, r, apperrors.WrapNotFound(r.Context(), err, err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, r, apperrors.WrapTimeout(r.Context(), err, message))
	default:
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, message))
	}
}

func userIDParam(r *http.Request) string {
	return chi.URLParam(r, "userID")
}

// millis parses an epoch-millisecond query value. Empty or invalid input
// yields nil.
func millis(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return claim.FromMillis(&ms)
}

func retryAfterSeconds(at time.Time, now time.Time) string {
	return strconv.FormatInt(claim.CeilSeconds(at.Sub(now)), 10)
}
