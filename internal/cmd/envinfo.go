package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

type envSection struct {
	title string
	rows  [][2]string
}

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display build, runtime, configuration and reward policy information.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sections := []envSection{buildSection(), runtimeSection()}

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
		} else {
			sections = append(sections, configSections(cfg)...)
		}

		writeEnvSections(cmd.OutOrStdout(), sections)
		return nil
	},
}

func buildSection() envSection {
	name := "earnbuzz"
	if identity := GetAppIdentity(); identity != nil && identity.BinaryName != "" {
		name = identity.BinaryName
	}
	v := crucible.GetVersion()
	return envSection{title: "Application", rows: [][2]string{
		{"Name", name},
		{"Version", versionInfo.Version},
		{"Commit", versionInfo.Commit},
		{"Built", versionInfo.BuildDate},
		{"Gofulmen", v.Gofulmen},
		{"Crucible", v.Crucible},
	}}
}

func runtimeSection() envSection {
	return envSection{title: "Runtime", rows: [][2]string{
		{"Go", runtime.Version()},
		{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
		{"CPUs", fmt.Sprint(runtime.NumCPU())},
	}}
}

func configSections(cfg *config.Config) []envSection {
	server := envSection{title: "Server", rows: [][2]string{
		{"Listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
		{"Log level", cfg.Logging.Level + " (" + cfg.Logging.Profile + ")"},
		{"Metrics port", fmt.Sprint(cfg.Metrics.Port)},
		{"Config file", config.DefaultConfigPath()},
	}}

	storage := envSection{title: "Storage", rows: [][2]string{{"Driver", cfg.Store.Driver}}}
	if strings.TrimSpace(cfg.Store.URL) != "" {
		storage.rows = append(storage.rows, [2]string{"URL", cfg.Store.URL})
	} else {
		storage.rows = append(storage.rows, [2]string{"Path", cfg.Store.Path})
	}
	storage.rows = append(storage.rows, [2]string{"State backend", cfg.State.Backend})
	if strings.EqualFold(cfg.State.Backend, backendRedis) {
		storage.rows = append(storage.rows, [2]string{"Redis", cfg.Redis.Addr + " prefix " + cfg.Redis.Prefix})
	}

	key := "(not set)"
	if strings.TrimSpace(cfg.Paystack.SecretKey) != "" {
		key = observability.MaskSecret(cfg.Paystack.SecretKey)
	}
	paystack := envSection{title: "Paystack", rows: [][2]string{
		{"Base URL", cfg.Paystack.BaseURL},
		{"Secret key", key},
		{"Timeout", cfg.Paystack.Timeout.String()},
		{"Cache", fmt.Sprintf("%s (ttl %s)", cfg.Paystack.CacheBackend, cfg.Paystack.CacheTTL)},
	}}
	if cfg.Paystack.RequestsPerSecond > 0 {
		paystack.rows = append(paystack.rows, [2]string{"Throttle", fmt.Sprintf("%.2f req/s (burst %d)", cfg.Paystack.RequestsPerSecond, cfg.Paystack.Burst)})
	}

	cp := claimPolicy(cfg.Claims)
	tp := taskPolicy(cfg.Tasks)
	rewards := envSection{title: "Rewards", rows: [][2]string{
		{"Claim credit", fmt.Sprint(cp.CreditAmount)},
		{"Claim cooldown", cp.Cooldown.String()},
		{"Burst limit", fmt.Sprintf("%d (pause %s)", cp.BurstLimit, cp.Pause)},
		{"Client clock", fmt.Sprint(cfg.Claims.TrustClientClock)},
		{"Task verify", tp.VerificationDelay.String()},
		{"Task cooldown", tp.Cooldown.String()},
	}}
	if cfg.Tasks.CatalogPath != "" {
		rewards.rows = append(rewards.rows, [2]string{"Task catalog", cfg.Tasks.CatalogPath})
	}

	return []envSection{server, storage, paystack, rewards}
}

func writeEnvSections(w io.Writer, sections []envSection) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	for i, section := range sections {
		if i > 0 {
			t.AppendSeparator()
		}
		t.AppendRow(table.Row{section.title, ""})
		for _, row := range section.rows {
			t.AppendRow(table.Row{"  " + row[0], row[1]})
		}
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
