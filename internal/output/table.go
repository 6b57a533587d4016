package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// TableFormatter renders views as ASCII tables.
type TableFormatter struct{}

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

// FormatBanks renders the bank directory.
func (f *TableFormatter) FormatBanks(banks []paystack.Bank) (string, error) {
	t := newTable(table.Row{"Code", "Name"})
	for _, b := range banks {
		t.AppendRow(table.Row{b.Code, b.Name})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d banks", len(banks))})
	return t.Render(), nil
}

// FormatResolution renders an account lookup.
func (f *TableFormatter) FormatResolution(res *paystack.Resolution) (string, error) {
	t := newTable(table.Row{"Field", "Value"})
	if res != nil {
		t.AppendRow(table.Row{"Account name", res.AccountName})
	}
	return t.Render(), nil
}

// FormatClaim renders a claim status or attempt.
func (f *TableFormatter) FormatClaim(view ClaimView) (string, error) {
	t := newTable(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"User", view.UserID})
	t.AppendRow(table.Row{"Status", claimStatusLabel(view)})
	t.AppendRow(table.Row{"Claims in burst", view.Snapshot.ClaimCount})
	t.AppendRow(table.Row{"Cooldown ends", formatTime(view.Snapshot.CooldownEndsAt)})
	t.AppendRow(table.Row{"Pause ends", formatTime(view.Snapshot.PauseEndsAt)})
	t.AppendRow(table.Row{"Countdown", view.Snapshot.Display()})
	if view.Outcome != nil {
		t.AppendRow(table.Row{"Credited", formatNaira(view.Outcome.CreditedAmount)})
	}
	if view.Rejected != nil {
		t.AppendRow(table.Row{"Retry at", formatTime(&view.Rejected.RetryAt)})
	}
	if view.Balance != nil {
		t.AppendRow(table.Row{"Balance", formatNaira(*view.Balance)})
	}
	return t.Render(), nil
}

// FormatClaimEntries renders stored claim states.
func (f *TableFormatter) FormatClaimEntries(entries []store.ClaimEntry) (string, error) {
	t := newTable(table.Row{"User", "Count", "Cooldown ends", "Pause ends", "Updated"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.UserID,
			e.State.ClaimCount,
			formatTime(e.State.CooldownEndsAt),
			formatTime(e.State.PauseEndsAt),
			formatTime(&e.UpdatedAt),
		})
	}
	if len(entries) == 0 {
		t.AppendRow(table.Row{"(no stored claim state)", "", "", "", ""})
	}
	return t.Render(), nil
}

// FormatTasks renders the task catalog.
func (f *TableFormatter) FormatTasks(tasks []task.Task) (string, error) {
	t := newTable(table.Row{"ID", "Platform", "Category", "Reward", "Description"})
	for _, tk := range tasks {
		t.AppendRow(table.Row{tk.ID, tk.Platform, tk.Category, formatNaira(tk.Reward), tk.Description})
	}
	return t.Render(), nil
}

// FormatTaskBoard renders a user's task board.
func (f *TableFormatter) FormatTaskBoard(userID string, entries []task.Entry) (string, error) {
	t := newTable(table.Row{"ID", "Platform", "Status", "Progress", "Cooldown ends"})
	t.SetTitle("Tasks for " + userID)
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Task.ID,
			e.Task.Platform,
			string(e.Status),
			fmt.Sprintf("%.0f%%", e.Progress),
			formatTime(e.CooldownEndsAt),
		})
	}
	return t.Render(), nil
}

// FormatTaskResult renders a task transition.
func (f *TableFormatter) FormatTaskResult(view TaskView) (string, error) {
	t := newTable(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"User", view.UserID})
	t.AppendRow(table.Row{"Task", view.Task.ID})
	t.AppendRow(table.Row{"Status", taskStatusLabel(view)})
	switch {
	case view.Rejected != nil:
		t.AppendRow(table.Row{"Retry at", formatTime(view.Rejected.RetryAt)})
	case view.VerifyEndsAt != nil:
		t.AppendRow(table.Row{"Verification ends", formatTime(view.VerifyEndsAt)})
	default:
		t.AppendRow(table.Row{"Reward", formatNaira(view.Reward)})
		t.AppendRow(table.Row{"Balance", formatNaira(view.Balance)})
	}
	return t.Render(), nil
}

// FormatWallet renders a balance and its recent transactions.
func (f *TableFormatter) FormatWallet(summary *core.WalletSummary) (string, error) {
	if summary == nil {
		return "", nil
	}
	t := newTable(table.Row{"When", "Type", "Description", "Amount"})
	t.SetTitle(fmt.Sprintf("%s: %s", summary.Wallet.UserID, formatNaira(summary.Wallet.Balance)))
	for _, txn := range summary.Transactions {
		created := txn.CreatedAt
		t.AppendRow(table.Row{formatTime(&created), string(txn.Type), txn.Description, formatNaira(txn.Amount)})
	}
	return t.Render(), nil
}

// FormatLoanQuote renders a loan quote.
func (f *TableFormatter) FormatLoanQuote(view LoanView) (string, error) {
	t := newTable(table.Row{"Field", "Value"})
	t.SetTitle("Business loan")
	t.AppendRow(table.Row{"Amount", formatNaira(view.Quote.Amount)})
	t.AppendRow(table.Row{"Processing fee", formatNaira(view.Quote.Fee)})
	t.AppendRow(table.Row{"Repayment", fmt.Sprintf("%d months", view.Quote.RepaymentMonths)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Account", view.Application.AccountNumber})
	t.AppendRow(table.Row{"Bank", bankLabel(view)})
	t.AppendRow(table.Row{"Account name", accountNameLabel(view)})
	t.AppendFooter(table.Row{"Total", formatNaira(view.Quote.Total)})
	return t.Render(), nil
}
