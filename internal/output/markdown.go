package output

import (
	"fmt"
	"strings"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// MarkdownFormatter renders views as markdown tables.
type MarkdownFormatter struct{}

func markdownTable(sb *strings.Builder, header []string, rows [][]string) {
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeMarkdownCell(cell)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// FormatBanks renders the bank directory.
func (f *MarkdownFormatter) FormatBanks(banks []paystack.Bank) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Banks (%d)\n\n", len(banks)))
	rows := make([][]string, 0, len(banks))
	for _, b := range banks {
		rows = append(rows, []string{b.Code, b.Name})
	}
	markdownTable(&sb, []string{"Code", "Name"}, rows)
	return sb.String(), nil
}

// FormatResolution renders an account lookup.
func (f *MarkdownFormatter) FormatResolution(res *paystack.Resolution) (string, error) {
	if res == nil {
		return "", nil
	}
	return fmt.Sprintf("**Account name**: %s\n", escapeMarkdownCell(res.AccountName)), nil
}

// FormatClaim renders a claim status or attempt.
func (f *MarkdownFormatter) FormatClaim(view ClaimView) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Claim: %s\n\n", escapeMarkdownCell(view.UserID)))
	rows := [][]string{
		{"Status", claimStatusLabel(view)},
		{"Claims in burst", fmt.Sprintf("%d", view.Snapshot.ClaimCount)},
		{"Cooldown ends", formatTime(view.Snapshot.CooldownEndsAt)},
		{"Pause ends", formatTime(view.Snapshot.PauseEndsAt)},
		{"Countdown", view.Snapshot.Display()},
	}
	if view.Outcome != nil {
		rows = append(rows, []string{"Credited", formatNaira(view.Outcome.CreditedAmount)})
	}
	if view.Balance != nil {
		rows = append(rows, []string{"Balance", formatNaira(*view.Balance)})
	}
	markdownTable(&sb, []string{"Field", "Value"}, rows)
	return sb.String(), nil
}

// FormatClaimEntries renders stored claim states.
func (f *MarkdownFormatter) FormatClaimEntries(entries []store.ClaimEntry) (string, error) {
	var sb strings.Builder
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.UserID,
			fmt.Sprintf("%d", e.State.ClaimCount),
			formatTime(e.State.CooldownEndsAt),
			formatTime(e.State.PauseEndsAt),
		})
	}
	markdownTable(&sb, []string{"User", "Count", "Cooldown ends", "Pause ends"}, rows)
	return sb.String(), nil
}

// FormatTasks renders the task catalog.
func (f *MarkdownFormatter) FormatTasks(tasks []task.Task) (string, error) {
	var sb strings.Builder
	rows := make([][]string, 0, len(tasks))
	for _, tk := range tasks {
		rows = append(rows, []string{tk.ID, tk.Platform, formatNaira(tk.Reward), tk.Description})
	}
	markdownTable(&sb, []string{"ID", "Platform", "Reward", "Description"}, rows)
	return sb.String(), nil
}

// FormatTaskBoard renders a user's task board.
func (f *MarkdownFormatter) FormatTaskBoard(userID string, entries []task.Entry) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Tasks for %s\n\n", escapeMarkdownCell(userID)))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Task.ID, e.Task.Platform, string(e.Status), formatTime(e.CooldownEndsAt)})
	}
	markdownTable(&sb, []string{"ID", "Platform", "Status", "Cooldown ends"}, rows)
	return sb.String(), nil
}

// FormatTaskResult renders a task transition.
func (f *MarkdownFormatter) FormatTaskResult(view TaskView) (string, error) {
	return fmt.Sprintf("**%s** (%s): %s\n",
		escapeMarkdownCell(view.Task.ID),
		escapeMarkdownCell(view.UserID),
		taskStatusLabel(view)), nil
}

// FormatWallet renders a balance and its recent transactions.
func (f *MarkdownFormatter) FormatWallet(summary *core.WalletSummary) (string, error) {
	if summary == nil {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Wallet: %s\n\n**Balance**: %s\n\n",
		escapeMarkdownCell(summary.Wallet.UserID), formatNaira(summary.Wallet.Balance)))
	rows := make([][]string, 0, len(summary.Transactions))
	for _, txn := range summary.Transactions {
		created := txn.CreatedAt
		rows = append(rows, []string{formatTime(&created), string(txn.Type), txn.Description, formatNaira(txn.Amount)})
	}
	markdownTable(&sb, []string{"When", "Type", "Description", "Amount"}, rows)
	return sb.String(), nil
}

// FormatLoanQuote renders a loan quote.
func (f *MarkdownFormatter) FormatLoanQuote(view LoanView) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Business loan\n\n")
	markdownTable(&sb, []string{"Field", "Value"}, [][]string{
		{"Amount", formatNaira(view.Quote.Amount)},
		{"Processing fee", formatNaira(view.Quote.Fee)},
		{"Total", formatNaira(view.Quote.Total)},
		{"Repayment", fmt.Sprintf("%d months", view.Quote.RepaymentMonths)},
		{"Account", view.Application.AccountNumber},
		{"Bank", bankLabel(view)},
		{"Account name", accountNameLabel(view)},
	})
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
