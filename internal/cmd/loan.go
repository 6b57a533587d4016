package cmd

import (
	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/loan"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	loanAmount      string
	loanAccount     string
	loanBank        string
	loanAccountName string
	loanVerify      bool
)

var loanCmd = &cobra.Command{
	Use:   "loan",
	Short: "Price business loan applications",
}

var loanQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the processing fee and total for a loan",
	Long: `Quote validates a business loan application and prices it.

With --verify and no --account-name, the bank name is matched against the
Paystack directory and the account holder is resolved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := loan.Application{
			Amount:        loan.ParseAmount(loanAmount),
			AccountNumber: loanAccount,
			BankName:      loanBank,
			AccountName:   loanAccountName,
		}

		view := output.LoanView{}
		if loanVerify && app.AccountName == "" {
			account, ok := loan.NormalizeAccountNumber(app.AccountNumber)
			if ok && app.BankName != "" {
				rt, err := openRuntime(cmd.Context())
				if err != nil {
					return err
				}
				defer rt.Close() // nolint:errcheck // best-effort cleanup

				bank, res, err := rt.resolver.ResolveByBankName(cmd.Context(), rt.directory, account, app.BankName)
				if err != nil {
					return err
				}
				if res.AccountName != "" {
					app.AccountName = res.AccountName
					view.BankCode = bank.Code
					view.Verified = true
				}
			}
		}

		app, quote, err := app.Validate()
		if err != nil {
			return err
		}
		view.Application = app
		view.Quote = quote

		return emitView(cmd, "loan.quote", func(f output.Formatter) (string, error) {
			return f.FormatLoanQuote(view)
		})
	},
}

func init() {
	loanQuoteCmd.Flags().StringVar(&loanAmount, "amount", "", "Loan amount in naira (separators allowed)")
	loanQuoteCmd.Flags().StringVar(&loanAccount, "account", "", "Payout account number")
	loanQuoteCmd.Flags().StringVar(&loanBank, "bank", "", "Bank name")
	loanQuoteCmd.Flags().StringVar(&loanAccountName, "account-name", "", "Account holder name")
	loanQuoteCmd.Flags().BoolVar(&loanVerify, "verify", false, "Resolve the account holder through Paystack")
	_ = loanQuoteCmd.MarkFlagRequired("amount")
	addOutputFlags(loanQuoteCmd)

	loanCmd.AddCommand(loanQuoteCmd)
	rootCmd.AddCommand(loanCmd)
}
