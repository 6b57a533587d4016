package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	claimResetAll    bool
	claimResetUser   string
	claimResetPrefix string
	claimResetYes    bool
	claimResetDryRun bool
)

var claimResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored claim state, clearing cooldowns and pauses",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readOutputOptions(cmd)
		if err != nil {
			return err
		}
		format := opts.format
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query := store.ClaimQuery{
			All:    claimResetAll,
			UserID: strings.TrimSpace(claimResetUser),
			Prefix: strings.TrimSpace(claimResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		if query.All && !claimResetYes && !claimResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		w, err := opts.open("claim.reset")
		if err != nil {
			return err
		}
		defer w.Close() // nolint:errcheck // stdout or a file we only write to

		if rt.kv != nil {
			if query.UserID == "" {
				return fmt.Errorf("the %s state backend only supports --user resets", backendRedis)
			}
			if claimResetDryRun {
				return writeClaimResetResult(format, w, 1, 0, true)
			}
			deleted, err := rt.kv.ResetClaimState(cmd.Context(), query.UserID)
			if err != nil {
				return err
			}
			return writeClaimResetResult(format, w, 1, deleted, false)
		}

		matched, err := rt.store.CountClaimStates(cmd.Context(), query)
		if err != nil {
			return err
		}

		if claimResetDryRun {
			return writeClaimResetResult(format, w, matched, 0, true)
		}

		deleted, err := rt.store.ResetClaimStates(cmd.Context(), query)
		if err != nil {
			return err
		}

		return writeClaimResetResult(format, w, matched, deleted, false)
	},
}

func writeClaimResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"matched": matched,
		"deleted": deleted,
		"dry_run": dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	line := fmt.Sprintf("Reset %d/%d claim state entr(ies)", deleted, matched)
	if dryRun {
		line = fmt.Sprintf("Would reset %d claim state entr(ies)", matched)
	}
	_, err := fmt.Fprint(w, ascii.DrawBox(line, 0))
	return err
}

func init() {
	claimResetCmd.Flags().BoolVar(&claimResetAll, "all", false, "Reset all users")
	claimResetCmd.Flags().StringVar(&claimResetUser, "user", "", "Reset a single user (exact match)")
	claimResetCmd.Flags().StringVar(&claimResetPrefix, "prefix", "", "Reset users with matching id prefix")
	claimResetCmd.Flags().BoolVar(&claimResetYes, "yes", false, "Confirm destructive reset")
	claimResetCmd.Flags().BoolVar(&claimResetDryRun, "dry-run", false, "Show what would be reset")
	addOutputFlags(claimResetCmd)
}
