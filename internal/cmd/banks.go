package cmd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	banksRefresh  bool
	banksAccount  string
	banksBankCode string
	banksBankName string
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "Query the Paystack bank directory and resolve accounts",
}

var banksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List banks (served from cache while fresh)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		var banks []paystack.Bank
		if banksRefresh {
			banks, err = rt.directory.Refresh(cmd.Context())
		} else {
			banks, err = rt.directory.ListBanks(cmd.Context())
		}
		if err != nil {
			return err
		}

		return emitView(cmd, "banks.list", func(f output.Formatter) (string, error) {
			return f.FormatBanks(banks)
		})
	},
}

var banksResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the account holder name for an account number",
	RunE: func(cmd *cobra.Command, args []string) error {
		account := digitsOnly(banksAccount)
		if account == "" {
			return fmt.Errorf("--account must contain digits")
		}
		if strings.TrimSpace(banksBankCode) == "" && strings.TrimSpace(banksBankName) == "" {
			return fmt.Errorf("one of --bank-code or --bank is required")
		}

		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		var res *paystack.Resolution
		if code := strings.TrimSpace(banksBankCode); code != "" {
			res, err = rt.resolver.ResolveAccount(cmd.Context(), account, code)
		} else {
			_, res, err = rt.resolver.ResolveByBankName(cmd.Context(), rt.directory, account, banksBankName)
		}
		if err != nil {
			return err
		}

		return emitView(cmd, "banks.resolve."+account, func(f output.Formatter) (string, error) {
			return f.FormatResolution(res)
		})
	},
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
}

func init() {
	banksListCmd.Flags().BoolVar(&banksRefresh, "refresh", false, "Bypass the cache and refetch from Paystack")
	addOutputFlags(banksListCmd)

	banksResolveCmd.Flags().StringVar(&banksAccount, "account", "", "Account number (non-digits are stripped)")
	banksResolveCmd.Flags().StringVar(&banksBankCode, "bank-code", "", "Bank code from the directory")
	banksResolveCmd.Flags().StringVar(&banksBankName, "bank", "", "Bank name, matched against the directory")
	_ = banksResolveCmd.MarkFlagRequired("account")
	banksResolveCmd.MarkFlagsMutuallyExclusive("bank-code", "bank")
	addOutputFlags(banksResolveCmd)

	banksCmd.AddCommand(banksListCmd)
	banksCmd.AddCommand(banksResolveCmd)
	rootCmd.AddCommand(banksCmd)
}
