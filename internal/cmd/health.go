package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/config"
	errwrap "github.com/earnbuzz/earnbuzz/internal/errors"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run offline self-health check",
	Long: `Verify the binary can start: version info, logging, configuration and the
task catalog. No database, redis or Paystack connection is attempted; use
'doctor' for those.`,
	Run: func(cmd *cobra.Command, args []string) {
		if observability.CLILogger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("logger not initialized"))
			return
		}
		logger := observability.CLILogger

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("version information missing"))
			return
		}
		logger.Info("✅ Version information available", zap.String("version", versionInfo.Version))

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration failed to load", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration failed to load"))
			return
		}
		logger.Info("✅ Configuration loaded",
			zap.String("state_backend", cfg.State.Backend),
			zap.String("store_driver", cfg.Store.Driver))

		catalog, err := loadCatalog(cfg.Tasks.CatalogPath)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Task catalog invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "task catalog invalid"))
			return
		}
		if catalog.Len() == 0 {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Task catalog is empty", errwrap.NewConfigInvalidError("task catalog is empty"))
			return
		}
		logger.Info(fmt.Sprintf("✅ Task catalog loaded (%d tasks)", catalog.Len()))

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
