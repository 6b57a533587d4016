package core

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TransactionType labels a ledger entry. Rewards are the only entries
// recorded, so every row is a credit.
type TransactionType string

const TransactionCredit TransactionType = "credit"

// Ledger descriptions for the built-in reward sources.
const (
	DescriptionClaimReward = "Daily Claim Reward"
	taskRewardPrefix       = "Task Reward: "
)

// TaskRewardDescription returns the ledger description for a task reward.
func TaskRewardDescription(platform string) string {
	return taskRewardPrefix + platform
}

// Wallet is a user's balance in whole naira.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      int64           `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WalletSummary is a wallet with its most recent transactions.
type WalletSummary struct {
	Wallet       Wallet        `json:"wallet"`
	Transactions []Transaction `json:"transactions"`
}

var nairaPrinter = message.NewPrinter(language.English)

// FormatNaira renders amount with the naira sign and thousands separators.
func FormatNaira(amount int64) string {
	if amount < 0 {
		return "-" + nairaPrinter.Sprintf("₦%d", -amount)
	}
	return nairaPrinter.Sprintf("₦%d", amount)
}
