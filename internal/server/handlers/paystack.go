package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

// proxyErrorBody is the flat error shape the frontend reads from the proxy
// routes.
type proxyErrorBody struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

// BanksResponse lists the bank directory.
type BanksResponse struct {
	Banks []paystack.Bank `json:"banks"`
}

// VerifyAccountRequest accepts both snake and camel case field names, given
// as JSON strings or numbers.
type VerifyAccountRequest struct {
	AccountNumber      looseString `json:"account_number"`
	BankCode           looseString `json:"bank_code"`
	AccountNumberCamel looseString `json:"accountNumber"`
	BankCodeCamel      looseString `json:"bankCode"`
}

func (v VerifyAccountRequest) account() string {
	if v.AccountNumber != "" {
		return string(v.AccountNumber)
	}
	return string(v.AccountNumberCamel)
}

func (v VerifyAccountRequest) bank() string {
	if v.BankCode != "" {
		return string(v.BankCode)
	}
	return string(v.BankCodeCamel)
}

// looseString decodes a JSON string, number or boolean into its text form.
// Numbers keep their literal digits.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*l = ""
	case string:
		*l = looseString(val)
	case json.Number:
		*l = looseString(val.String())
	case bool:
		*l = looseString(strconv.FormatBool(val))
	default:
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	return nil
}

// BanksHandler serves GET /api/banks.
func (a *API) BanksHandler(w http.ResponseWriter, r *http.Request) {
	banks, err := a.Directory.ListBanks(r.Context())
	if err != nil {
		writeProxyError(w, err, paystack.MsgBanksServer)
		return
	}
	if banks == nil {
		banks = []paystack.Bank{}
	}
	writeJSON(w, http.StatusOK, BanksResponse{Banks: banks})
}

// VerifyAccountHandler serves POST /api/verify-account.
func (a *API) VerifyAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logProxyFailure("verify_account", http.StatusInternalServerError, err)
		writeJSON(w, http.StatusInternalServerError, proxyErrorBody{Error: paystack.MsgVerifyServer})
		return
	}

	res, err := a.Resolver.ResolveAccount(r.Context(), req.account(), req.bank())
	if err != nil {
		writeProxyError(w, err, paystack.MsgVerifyServer,
			observability.AccountField("account_number", req.account()),
			zap.String("bank_code", req.bank()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeProxyError(w http.ResponseWriter, err error, fallback string, fields ...zap.Field) {
	var pe *paystack.ProxyError
	if !errors.As(err, &pe) {
		logProxyFailure("proxy", http.StatusInternalServerError, err, fields...)
		writeJSON(w, http.StatusInternalServerError, proxyErrorBody{Error: fallback})
		return
	}

	status := pe.Status
	if status < 400 {
		status = http.StatusInternalServerError
	}
	logProxyFailure(string(pe.Kind), status, err, fields...)
	writeJSON(w, status, proxyErrorBody{Error: pe.Message, Data: pe.Data})
}

func logProxyFailure(kind string, status int, err error, extra ...zap.Field) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}
	fields := append([]zap.Field{
		zap.String("kind", kind),
		zap.Int("status", status),
		zap.Error(err),
	}, extra...)
	logger.Warn("Paystack proxy request failed", fields...)
}
