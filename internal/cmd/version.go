package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/config"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. --extended adds build, toolchain and reward policy details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s\n", GetAppIdentity().BinaryName, versionInfo.Version)
		if !extended {
			return nil
		}

		fmt.Fprintf(w, "Commit: %s\nBuilt: %s\nGo: %s\n\n", versionInfo.Commit, versionInfo.BuildDate, runtime.Version())
		v := crucible.GetVersion()
		fmt.Fprintf(w, "Gofulmen: %s\nCrucible: %s\n", v.Gofulmen, v.Crucible)

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			fmt.Fprintf(w, "\nReward policy unavailable: %v\n", err)
			return nil
		}
		writeRewardPolicy(w, cfg)
		return nil
	},
}

func writeRewardPolicy(w io.Writer, cfg *config.Config) {
	cp := claimPolicy(cfg.Claims)
	tp := taskPolicy(cfg.Tasks)
	fmt.Fprintf(w, "\nClaim: %d per claim, cooldown %s, pause %s after %d claims\n",
		cp.CreditAmount, cp.Cooldown, cp.Pause, cp.BurstLimit)
	fmt.Fprintf(w, "Tasks: verification %s, repeat after %s\n", tp.VerificationDelay, tp.Cooldown)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show build, toolchain and reward policy details")
}
