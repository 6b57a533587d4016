package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/output"
)

var walletUser string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Inspect user wallets",
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's balance and recent transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		user := strings.TrimSpace(walletUser)
		summary, err := rt.wallets.Summary(cmd.Context(), user)
		if err != nil {
			return err
		}
		return emitView(cmd, "wallet."+user, func(f output.Formatter) (string, error) {
			return f.FormatWallet(summary)
		})
	},
}

func init() {
	walletShowCmd.Flags().StringVar(&walletUser, "user", "", "User id")
	_ = walletShowCmd.MarkFlagRequired("user")
	addOutputFlags(walletShowCmd)

	walletCmd.AddCommand(walletShowCmd)
	rootCmd.AddCommand(walletCmd)
}
