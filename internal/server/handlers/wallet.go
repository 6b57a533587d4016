package handlers

import (
	"net/http"

	"github.com/earnbuzz/earnbuzz/internal/core"
)

// WalletHandler serves GET /api/users/{userID}/wallet.
func (a *API) WalletHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Wallets.Summary(r.Context(), userIDParam(r))
	if err != nil {
		respondWithServiceError(w, r, err, "failed to load wallet")
		return
	}
	if summary.Transactions == nil {
		summary.Transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, summary)
}
