package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/loan"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ClaimView is a claim status, optionally with the result of an attempt.
type ClaimView struct {
	UserID   string
	At       time.Time
	Snapshot claim.Snapshot
	Outcome  *claim.Outcome
	Rejected *claim.Rejected
	Balance  *int64
}

// TaskView is the result of a task transition.
type TaskView struct {
	UserID       string
	Task         task.Task
	Action       string
	VerifyEndsAt *time.Time
	Reward       int64
	Balance      int64
	Rejected     *task.Rejected
}

// LoanView is a priced loan application.
type LoanView struct {
	Application loan.Application
	Quote       loan.Quote
	BankCode    string
	Verified    bool
}

// Formatter renders CLI views.
type Formatter interface {
	FormatBanks(banks []paystack.Bank) (string, error)
	FormatResolution(res *paystack.Resolution) (string, error)
	FormatClaim(view ClaimView) (string, error)
	FormatClaimEntries(entries []store.ClaimEntry) (string, error)
	FormatTasks(tasks []task.Task) (string, error)
	FormatTaskBoard(userID string, entries []task.Entry) (string, error)
	FormatTaskResult(view TaskView) (string, error)
	FormatWallet(summary *core.WalletSummary) (string, error)
	FormatLoanQuote(view LoanView) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatNaira(amount int64) string {
	return core.FormatNaira(amount)
}

func claimStatusLabel(view ClaimView) string {
	switch {
	case view.Rejected != nil:
		return "rejected: " + string(view.Rejected.Reason)
	case view.Outcome != nil && view.Outcome.TriggeredPause:
		return "credited, pause started"
	case view.Outcome != nil:
		return "credited"
	case view.Snapshot.Paused():
		return "paused"
	case view.Snapshot.CanClaim:
		return "ready"
	default:
		return "cooling down"
	}
}

func taskStatusLabel(view TaskView) string {
	if view.Rejected != nil {
		return "rejected: " + string(view.Rejected.Reason)
	}
	if view.Action == "begin" {
		return "verifying"
	}
	return "completed"
}

func bankLabel(view LoanView) string {
	if view.BankCode == "" {
		return view.Application.BankName
	}
	return fmt.Sprintf("%s (%s)", view.Application.BankName, view.BankCode)
}

func accountNameLabel(view LoanView) string {
	if view.Verified {
		return view.Application.AccountName + " (verified)"
	}
	return view.Application.AccountName
}
