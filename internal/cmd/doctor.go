package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/observability"
)

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

func (s checkStatus) mark() string {
	switch s {
	case checkOK:
		return "✅"
	case checkWarn:
		return "⚠️ "
	default:
		return "❌"
	}
}

type checkResult struct {
	status checkStatus
	detail string
	notes  []string
	fields []zap.Field
}

func passed(detail string, fields ...zap.Field) checkResult {
	return checkResult{status: checkOK, detail: detail, fields: fields}
}

func warned(detail string, fields ...zap.Field) checkResult {
	return checkResult{status: checkWarn, detail: detail, fields: fields}
}

func failed(detail string, fields ...zap.Field) checkResult {
	return checkResult{status: checkFail, detail: detail, fields: fields}
}

// doctorEnv is shared by the checks of one doctor run. cfg is nil when the
// configuration failed to load.
type doctorEnv struct {
	cfg    *config.Config
	cfgErr error
}

type doctorCheck struct {
	name string
	run  func(ctx context.Context, env *doctorEnv) checkResult
}

var doctorChecks = []doctorCheck{
	{name: "Go version", run: checkGoVersion},
	{name: "Gofulmen and Crucible", run: checkFulmen},
	{name: "config directory", run: checkConfigDir},
	{name: "configuration", run: checkConfigLoads},
	{name: "database", run: checkDatabase},
	{name: "state backend", run: checkStateBackend},
	{name: "Paystack credential", run: checkPaystackKey},
}

func checkGoVersion(context.Context, *doctorEnv) checkResult {
	v := runtime.Version()
	if v >= "go1.23" {
		return passed(v, zap.String("go_version", v))
	}
	return warned(v+" (recommended: go1.23+)", zap.String("go_version", v))
}

func checkFulmen(context.Context, *doctorEnv) checkResult {
	v := crucible.GetVersion()
	if v.Gofulmen == "" || v.Crucible == "" {
		return failed("version metadata unavailable")
	}
	return passed(fmt.Sprintf("gofulmen v%s, crucible v%s", v.Gofulmen, v.Crucible),
		zap.String("gofulmen_version", v.Gofulmen),
		zap.String("crucible_version", v.Crucible))
}

func checkConfigDir(context.Context, *doctorEnv) checkResult {
	path := config.DefaultConfigPath()
	if path == "" {
		return failed("cannot resolve config directory")
	}
	dir := filepath.Dir(path)
	return passed(dir, zap.String("config_dir", dir))
}

func checkConfigLoads(_ context.Context, env *doctorEnv) checkResult {
	if env.cfgErr != nil {
		return failed("does not load", zap.Error(env.cfgErr))
	}
	return passed(fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
}

func checkDatabase(_ context.Context, env *doctorEnv) checkResult {
	if env.cfg == nil {
		return warned("skipped (config not loaded)")
	}
	if raw := strings.TrimSpace(env.cfg.Store.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return failed("invalid store url", zap.Error(err))
		}
		return passed(u.Scheme+"://"+u.Host+" (remote)", zap.String("db_host", u.Host))
	}

	path := localStorePath(env.cfg)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return passed(fmt.Sprintf("%s (%s)", path, formatFileSize(info.Size())),
			zap.String("db_path", path), zap.Int64("db_size", info.Size()))
	case os.IsNotExist(err):
		return warned(path+" (not created yet)", zap.String("db_path", path))
	default:
		return failed(path, zap.String("db_path", path), zap.Error(err))
	}
}

func checkStateBackend(ctx context.Context, env *doctorEnv) checkResult {
	if env.cfg == nil {
		return warned("skipped (config not loaded)")
	}
	rt, err := buildRuntime(ctx, env.cfg)
	if err != nil {
		return failed("cannot open", zap.Error(err))
	}
	defer rt.Close() // nolint:errcheck // best-effort cleanup

	backend := backendLibsql
	if rt.kv != nil {
		backend = backendRedis
	}
	res := passed(fmt.Sprintf("%s (%d tasks)", backend, rt.tasks.Catalog.Len()), zap.String("state_backend", backend))
	if version, err := rt.store.SchemaVersion(ctx); err == nil {
		res.notes = append(res.notes, fmt.Sprintf("Schema version %d of %d", version, store.LatestSchemaVersion()))
	}
	if snap, fresh := rt.directory.Cached(ctx); snap != nil {
		freshness := "stale"
		if fresh {
			freshness = "fresh"
		}
		res.notes = append(res.notes, fmt.Sprintf("Bank directory cache: %d banks (%s, %s)",
			len(snap.Banks), formatTimeAgo(snap.FetchedAt), freshness))
	}
	return res
}

func checkPaystackKey(_ context.Context, env *doctorEnv) checkResult {
	if env.cfg == nil {
		return warned("skipped (config not loaded)")
	}
	if key := strings.TrimSpace(env.cfg.Paystack.SecretKey); key != "" {
		return passed("configured (" + observability.MaskSecret(key) + ")")
	}
	res := warned("not configured (set PAYSTACK_SECRET_KEY or run 'earnbuzz doctor init')")
	res.notes = []string{"Bank listing and account verification require a Paystack secret key."}
	return res
}

// runDoctorChecks logs each check and reports whether none failed. Warnings
// do not fail the run.
func runDoctorChecks(ctx context.Context, logger *logging.Logger, checks []doctorCheck, env *doctorEnv) bool {
	healthy := true
	for i, check := range checks {
		res := check.run(ctx, env)
		line := fmt.Sprintf("[%d/%d] Checking %s... %s %s", i+1, len(checks), check.name, res.status.mark(), res.detail)
		switch res.status {
		case checkOK:
			logger.Info(line, res.fields...)
		case checkWarn:
			logger.Warn(line, res.fields...)
		default:
			logger.Error(line, res.fields...)
			healthy = false
		}
		for _, note := range res.notes {
			logger.Info("       " + note)
		}
	}
	return healthy
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check the toolchain, configuration, store, state backend and Paystack credential.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := observability.CLILogger
		name := "earnbuzz"
		if identity := GetAppIdentity(); identity != nil && identity.BinaryName != "" {
			name = identity.BinaryName
		}

		env := &doctorEnv{}
		env.cfg, env.cfgErr = config.Load(ctx)

		logger.Info("=== " + name + " doctor ===")
		healthy := runDoctorChecks(ctx, logger, doctorChecks, env)
		if !healthy {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
			return fmt.Errorf("doctor found problems")
		}
		logger.Info(fmt.Sprintf("✅ Your %s installation is healthy.", name))
		return nil
	},
}

var (
	doctorInitForce       bool
	doctorInitPaystackKey string
	doctorResetConfig     bool
	doctorResetData       bool
	doctorResetAll        bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("config path not resolved")
		}
		if fileExists(path) && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		key := strings.TrimSpace(doctorInitPaystackKey)
		if strings.EqualFold(key, "prompt") {
			var err error
			if key, err = promptForValue(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter Paystack secret key (leave blank to skip): "); err != nil {
				return err
			}
		}

		// #nosec G301 -- config directory follows XDG defaults
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		mode := os.FileMode(0644)
		if key != "" {
			mode = 0600
		}
		if err := os.WriteFile(path, []byte(buildInitConfig(key)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", path))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration paths and effective reward settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		path := config.DefaultConfigPath()
		logger.Info(fmt.Sprintf("Config file:    %s (%s)", path, existenceStatus(fileExists(path))))
		if dir := config.DefaultDataDir(); dir != "" {
			logger.Info(fmt.Sprintf("Data directory: %s (%s)", dir, existenceStatus(fileExists(dir))))
		}

		for _, name := range append([]string{"EARNBUZZ_PAYSTACK_SECRET_KEY"}, config.PaystackKeyEnvFallbacks...) {
			logger.Info(fmt.Sprintf("%s: %s", name, envStatus(name)))
		}

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return nil
		}
		env := &doctorEnv{cfg: cfg}
		logger.Info("Database: " + checkDatabase(cmd.Context(), env).detail)
		logger.Info("Effective settings:",
			zap.String("state.backend", cfg.State.Backend),
			zap.String("paystack.cache_backend", cfg.Paystack.CacheBackend),
			zap.Bool("claims.trust_client_clock", cfg.Claims.TrustClientClock))
		writeRewardPolicy(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the user config file and/or the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig, doctorResetData = true, true
		}
		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			if path := config.DefaultConfigPath(); path == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := removeIfPresent("Config", path); err != nil {
				return err
			}
		}

		if doctorResetData {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}
			if err := removeIfPresent("Database", localStorePath(cfg)); err != nil {
				return err
			}
		}
		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("config path not resolved")
		}
		if !fileExists(path) {
			return fmt.Errorf("config file not found: %s", path)
		}
		if _, err := config.Load(cmd.Context()); err != nil {
			return err
		}
		observability.CLILogger.Info("Config is valid", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd, doctorConfigCmd, doctorResetCmd, doctorValidateCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitPaystackKey, "paystack-key", "", "Paystack secret key, or 'prompt' to enter it interactively")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// localStorePath resolves the absolute path of the embedded database.
func localStorePath(cfg *config.Config) string {
	path := strings.TrimPrefix(strings.TrimSpace(cfg.Store.Path), "file:")
	if path == "" {
		path = config.DefaultStorePath()
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func removeIfPresent(what, path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		observability.CLILogger.Info(what+" removed", zap.String("path", path))
	case os.IsNotExist(err):
		observability.CLILogger.Info(what+" already removed", zap.String("path", path))
	default:
		return fmt.Errorf("remove %s: %w", strings.ToLower(what), err)
	}
	return nil
}

func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d bytes", bytes)
	}
	value, suffix := float64(bytes)/unit, "KB"
	for _, next := range []string{"MB", "GB"} {
		if value < unit {
			break
		}
		value, suffix = value/unit, next
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "min")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func buildInitConfig(paystackKey string) string {
	var b strings.Builder
	b.WriteString("# earnbuzz config - created by 'earnbuzz doctor init'\n")
	b.WriteString("state:\n  backend: libsql\n")
	b.WriteString("paystack:\n  cache_backend: memory\n")
	if key := strings.TrimSpace(paystackKey); key != "" {
		fmt.Fprintf(&b, "  secret_key: %q\n", key)
	} else {
		b.WriteString("  # secret_key: \"\"  # or set PAYSTACK_SECRET_KEY\n")
	}
	b.WriteString("claims:\n  trust_client_clock: true\n")
	return b.String()
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	value, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
