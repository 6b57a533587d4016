package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/earnbuzz/earnbuzz/internal/appid"
	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	verbose  bool

	appIdentity *appidentity.Identity

	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo records build metadata injected by main.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the identity loaded during command initialization.
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

var rootCmd = &cobra.Command{
	Use:   filepath.Base(os.Args[0]),
	Short: "Cash rewards backend: periodic claims, social tasks, and Paystack bank lookups",
	Long: `earnbuzz serves the cash rewards API and administers its state.

Configuration is layered: built-in defaults, then the user config file
(--config or $XDG_CONFIG_HOME/earnbuzz/config.yaml), then EARNBUZZ_*
environment variables and command flags.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Commands other than serve never export metrics.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Help output is rendered before OnInitialize hooks run.
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "user config file (replaces XDG discovery)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration (missing file is ignored)")
	flags.StringVar(&logLevel, "log-level", "", "server log level override (trace, debug, info, warn, error)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose CLI output")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
}

func applyIdentity(identity *appidentity.Identity) {
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("user config file (default $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig runs after flag parsing and before any command.
func initConfig() {
	// Variables already in the environment win over the dotenv file.
	loadDotenv(envFile)

	ctx := context.Background()
	identity, err := appid.Get(ctx)
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	applyIdentity(identity)

	observability.InitCLILogger(identity.BinaryName, verbose)
	config.SetUserConfigFile(cfgFile)

	// viper only carries CLI-level settings; config.Load owns the files.
	viper.SetEnvPrefix(strings.TrimSuffix(appid.EnvPrefix(ctx), "_"))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// cliLogLevel returns the --log-level flag or its environment equivalent.
func cliLogLevel() string {
	return strings.TrimSpace(viper.GetString("logging.level"))
}

func loadDotenv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
	}
}
