// Package loan prices business loans and checks loan applications.
package loan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/earnbuzz/earnbuzz/internal/core"
)

const (
	MinAmount int64 = 500_000
	MaxAmount int64 = 5_000_000
	// FeePercent is the one-time processing fee charged when applying.
	FeePercent      = 3
	RepaymentMonths = 12
	// AccountNumberLength is the NUBAN account number length.
	AccountNumberLength = 10
)

// Messages shown to applicants.
const (
	MsgMissingFields  = "Please fill in all required fields."
	MsgInvalidAccount = "Please enter a valid 10-digit account number."
)

// MsgAmountOutOfRange names the accepted loan range.
var MsgAmountOutOfRange = fmt.Sprintf("Loan amount must be between %s and %s.",
	core.FormatNaira(MinAmount), core.FormatNaira(MaxAmount))

// ValidationError reports unusable application input. Message is safe to
// show to the applicant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Quote is the cost of a loan.
type Quote struct {
	Amount          int64 `json:"amount"`
	Fee             int64 `json:"fee"`
	Total           int64 `json:"total"`
	RepaymentMonths int   `json:"repayment_months"`
}

// Preview prices amount without checking the accepted range. Non-positive
// amounts price to zero.
func Preview(amount int64) Quote {
	if amount <= 0 {
		return Quote{RepaymentMonths: RepaymentMonths}
	}
	fee := Fee(amount)
	return Quote{Amount: amount, Fee: fee, Total: amount + fee, RepaymentMonths: RepaymentMonths}
}

// NewQuote prices amount after checking it is within MinAmount and MaxAmount.
func NewQuote(amount int64) (Quote, error) {
	if amount < MinAmount || amount > MaxAmount {
		return Quote{}, &ValidationError{Field: "amount", Message: MsgAmountOutOfRange}
	}
	return Preview(amount), nil
}

// Fee is FeePercent of amount, rounded up to a whole naira.
func Fee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	whole := (amount / 100) * FeePercent
	rest := (amount % 100) * FeePercent
	return whole + (rest+99)/100
}

// ParseAmount reads a user-typed amount. Everything but digits and dots is
// dropped and the fraction is truncated; unreadable input yields 0.
func ParseAmount(raw string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(f))
}

// NormalizeAccountNumber strips non-digits and reports whether the result is
// a full account number.
func NormalizeAccountNumber(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	return digits, len(digits) == AccountNumberLength
}

// Application is a loan request with its payout account.
type Application struct {
	Amount        int64
	AccountNumber string
	BankName      string
	AccountName   string
}

// Validate checks required fields, then the account number, then the amount,
// and returns the application with its account number normalized alongside
// the quote.
func (a Application) Validate() (Application, Quote, error) {
	a.BankName = strings.TrimSpace(a.BankName)
	a.AccountName = strings.TrimSpace(a.AccountName)
	if a.Amount == 0 || strings.TrimSpace(a.AccountNumber) == "" || a.BankName == "" || a.AccountName == "" {
		return a, Quote{}, &ValidationError{Field: missingField(a), Message: MsgMissingFields}
	}

	account, ok := NormalizeAccountNumber(a.AccountNumber)
	if !ok {
		return a, Quote{}, &ValidationError{Field: "account_number", Message: MsgInvalidAccount}
	}
	a.AccountNumber = account

	quote, err := NewQuote(a.Amount)
	if err != nil {
		return a, Quote{}, err
	}
	return a, quote, nil
}

func missingField(a Application) string {
	switch {
	case a.Amount == 0:
		return "amount"
	case strings.TrimSpace(a.AccountNumber) == "":
		return "account_number"
	case a.BankName == "":
		return "bank_name"
	default:
		return "account_name"
	}
}
