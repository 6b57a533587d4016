package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	claimUser  string
	claimNowMs int64
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Inspect and exercise the periodic reward claim",
}

var claimStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a user's claim limiter state",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		user := strings.TrimSpace(claimUser)
		reported := claimReportedTime(rt)
		snap, err := rt.claims.Status(cmd.Context(), user, reported)
		if err != nil {
			return err
		}

		return emitView(cmd, "claim.status."+user, func(f output.Formatter) (string, error) {
			return f.FormatClaim(output.ClaimView{UserID: user, Snapshot: snap})
		})
	},
}

var claimAttemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Attempt a claim for a user and credit the wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		user := strings.TrimSpace(claimUser)
		res, err := rt.claims.Attempt(cmd.Context(), user, claimReportedTime(rt))
		if err != nil {
			return err
		}

		view := output.ClaimView{UserID: user, At: res.At, Snapshot: res.Snapshot, Rejected: res.Rejected}
		if res.Rejected == nil {
			outcome := res.Outcome
			balance := res.Balance
			view.Outcome = &outcome
			view.Balance = &balance
		}
		return emitView(cmd, "claim.attempt."+user, func(f output.Formatter) (string, error) {
			return f.FormatClaim(view)
		})
	},
}

// claimReportedTime honors --now-ms; the operator's clock is always trusted.
func claimReportedTime(rt *appRuntime) *time.Time {
	if claimNowMs <= 0 {
		return nil
	}
	rt.claims.TrustClientClock = true
	return claim.FromMillis(&claimNowMs)
}

func init() {
	for _, c := range []*cobra.Command{claimStatusCmd, claimAttemptCmd} {
		c.Flags().StringVar(&claimUser, "user", "", "User id")
		c.Flags().Int64Var(&claimNowMs, "now-ms", 0, "Evaluate at this epoch-millisecond instant")
		_ = c.MarkFlagRequired("user")
		addOutputFlags(c)
	}

	claimCmd.AddCommand(claimStatusCmd)
	claimCmd.AddCommand(claimAttemptCmd)
	claimCmd.AddCommand(claimListCmd)
	claimCmd.AddCommand(claimResetCmd)
	rootCmd.AddCommand(claimCmd)
}
