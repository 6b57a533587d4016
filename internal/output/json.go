package output

import (
	"encoding/json"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// JSONFormatter renders views as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// FormatBanks renders the bank directory.
func (f *JSONFormatter) FormatBanks(banks []paystack.Bank) (string, error) {
	if banks == nil {
		banks = []paystack.Bank{}
	}
	return f.marshal(map[string]any{"banks": banks})
}

// FormatResolution renders an account lookup.
func (f *JSONFormatter) FormatResolution(res *paystack.Resolution) (string, error) {
	return f.marshal(res)
}

// FormatClaim renders a claim status or attempt with millisecond deadlines.
func (f *JSONFormatter) FormatClaim(view ClaimView) (string, error) {
	payload := map[string]any{
		"user_id":     view.UserID,
		"can_claim":   view.Snapshot.CanClaim,
		"claim_count": view.Snapshot.ClaimCount,
		"paused":      view.Snapshot.Paused(),
		"display":     view.Snapshot.Display(),
	}
	if ms := claim.ToMillis(view.Snapshot.CooldownEndsAt); ms != nil {
		payload["cooldown_ends_at_ms"] = *ms
	}
	if ms := claim.ToMillis(view.Snapshot.PauseEndsAt); ms != nil {
		payload["pause_ends_at_ms"] = *ms
	}
	if view.Outcome != nil {
		payload["credited_amount"] = view.Outcome.CreditedAmount
		payload["triggered_pause"] = view.Outcome.TriggeredPause
	}
	if view.Rejected != nil {
		payload["reason"] = view.Rejected.Reason
		payload["retry_at_ms"] = view.Rejected.RetryAt.UnixMilli()
	}
	if view.Balance != nil {
		payload["balance"] = *view.Balance
	}
	return f.marshal(payload)
}

// FormatClaimEntries renders stored claim states.
func (f *JSONFormatter) FormatClaimEntries(entries []store.ClaimEntry) (string, error) {
	if entries == nil {
		entries = []store.ClaimEntry{}
	}
	return f.marshal(entries)
}

// FormatTasks renders the task catalog.
func (f *JSONFormatter) FormatTasks(tasks []task.Task) (string, error) {
	return f.marshal(map[string]any{"tasks": tasks})
}

// FormatTaskBoard renders a user's task board.
func (f *JSONFormatter) FormatTaskBoard(userID string, entries []task.Entry) (string, error) {
	return f.marshal(map[string]any{"user_id": userID, "tasks": entries})
}

// FormatTaskResult renders a task transition.
func (f *JSONFormatter) FormatTaskResult(view TaskView) (string, error) {
	payload := map[string]any{
		"user_id": view.UserID,
		"task_id": view.Task.ID,
		"status":  taskStatusLabel(view),
	}
	if view.Rejected != nil {
		payload["reason"] = view.Rejected.Reason
		if ms := claim.ToMillis(view.Rejected.RetryAt); ms != nil {
			payload["retry_at_ms"] = *ms
		}
	} else if ms := claim.ToMillis(view.VerifyEndsAt); ms != nil {
		payload["verify_ends_at_ms"] = *ms
	} else {
		payload["reward"] = view.Reward
		payload["balance"] = view.Balance
	}
	return f.marshal(payload)
}

// FormatWallet renders a balance and its recent transactions.
func (f *JSONFormatter) FormatWallet(summary *core.WalletSummary) (string, error) {
	return f.marshal(summary)
}

// FormatLoanQuote renders a loan quote.
func (f *JSONFormatter) FormatLoanQuote(view LoanView) (string, error) {
	payload := map[string]any{
		"amount":           view.Quote.Amount,
		"fee":              view.Quote.Fee,
		"total":            view.Quote.Total,
		"repayment_months": view.Quote.RepaymentMonths,
		"account_number":   view.Application.AccountNumber,
		"bank_name":        view.Application.BankName,
		"account_name":     view.Application.AccountName,
		"verified":         view.Verified,
	}
	if view.BankCode != "" {
		payload["bank_code"] = view.BankCode
	}
	return f.marshal(payload)
}
