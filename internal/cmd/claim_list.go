package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	claimListAll    bool
	claimListPrefix string
)

var claimListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored claim state (libsql backend)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		if rt.kv != nil {
			return fmt.Errorf("claim list is not supported with the %s state backend", backendRedis)
		}

		query := store.ClaimQuery{
			All:    claimListAll,
			Prefix: strings.TrimSpace(claimListPrefix),
		}
		if !query.All && query.Prefix == "" {
			query.All = true
		}

		entries, err := rt.store.ListClaimStates(cmd.Context(), query)
		if err != nil {
			return err
		}

		return emitView(cmd, "claim.list", func(f output.Formatter) (string, error) {
			return f.FormatClaimEntries(entries)
		})
	},
}

func init() {
	claimListCmd.Flags().BoolVar(&claimListAll, "all", false, "List all users")
	claimListCmd.Flags().StringVar(&claimListPrefix, "prefix", "", "List users with matching id prefix")
	addOutputFlags(claimListCmd)
}
