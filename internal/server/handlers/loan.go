package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/earnbuzz/earnbuzz/internal/core/loan"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	apperrors "github.com/earnbuzz/earnbuzz/internal/errors"
)

// LoanQuoteRequest is a business loan application. The loan form's camel
// case names are accepted too. Without an account name the payout account is
// verified through the bank directory.
type LoanQuoteRequest struct {
	Amount             looseString `json:"amount"`
	LoanAmount         looseString `json:"loanAmount"`
	AccountNumber      looseString `json:"account_number"`
	AccountNumberCamel looseString `json:"accountNumber"`
	BankName           string      `json:"bank_name"`
	SelectedBank       string      `json:"selectedBank"`
	AccountName        string      `json:"account_name"`
	AccountNameCamel   string      `json:"accountName"`
}

func (q LoanQuoteRequest) application() loan.Application {
	return loan.Application{
		Amount:        loan.ParseAmount(firstNonEmpty(string(q.Amount), string(q.LoanAmount))),
		AccountNumber: firstNonEmpty(string(q.AccountNumber), string(q.AccountNumberCamel)),
		BankName:      strings.TrimSpace(firstNonEmpty(q.BankName, q.SelectedBank)),
		AccountName:   strings.TrimSpace(firstNonEmpty(q.AccountName, q.AccountNameCamel)),
	}
}

// LoanQuoteResponse prices an accepted application.
type LoanQuoteResponse struct {
	loan.Quote
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	BankCode      string `json:"bank_code,omitempty"`
	AccountName   string `json:"account_name"`
	Verified      bool   `json:"verified"`
}

// LoanQuoteHandler serves POST /api/loan/quote.
func (a *API) LoanQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req LoanQuoteRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid loan request body"))
		return
	}

	app := req.application()
	var resp LoanQuoteResponse
	if app.AccountName == "" {
		bank, res, err := a.verifyPayout(r.Context(), app)
		if err != nil {
			respondWithPayoutError(w, r, err)
			return
		}
		if res != nil && res.AccountName != "" {
			app.AccountName = res.AccountName
			resp.BankCode = bank.Code
			resp.Verified = true
		}
	}

	app, quote, err := app.Validate()
	if err != nil {
		var verr *loan.ValidationError
		if errors.As(err, &verr) {
			respondWithError(w, r, apperrors.NewInvalidInputError(verr.Message))
			return
		}
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to quote loan"))
		return
	}

	resp.Quote = quote
	resp.AccountNumber = app.AccountNumber
	resp.BankName = app.BankName
	resp.AccountName = app.AccountName
	writeJSON(w, http.StatusOK, resp)
}

// verifyPayout resolves the account holder when the directory and resolver
// are configured and the application names a bank and a full account
// number. It returns a nil resolution when verification does not apply.
func (a *API) verifyPayout(ctx context.Context, app loan.Application) (paystack.Bank, *paystack.Resolution, error) {
	if a.Directory == nil || a.Resolver == nil || app.BankName == "" {
		return paystack.Bank{}, nil, nil
	}
	account, ok := loan.NormalizeAccountNumber(app.AccountNumber)
	if !ok {
		return paystack.Bank{}, nil, nil
	}
	return a.Resolver.ResolveByBankName(ctx, a.Directory, account, app.BankName)
}

func respondWithPayoutError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *paystack.ProxyError
	if !errors.As(err, &pe) {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, paystack.MsgVerifyServer))
		return
	}
	logProxyFailure(string(pe.Kind), pe.Status, err)
	if pe.Kind == paystack.KindValidation {
		respondWithError(w, r, apperrors.NewInvalidInputError(pe.Message))
		return
	}
	respondWithError(w, r, apperrors.NewExternalServiceError(pe.Message))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
