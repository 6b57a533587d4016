package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/config"
	errwrap "github.com/earnbuzz/earnbuzz/internal/errors"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server"
	"github.com/earnbuzz/earnbuzz/internal/server/handlers"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultMetricsPort     = 9090
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker reports whether the Prometheus exporter is running.
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewUnavailableError("telemetry system not initialized")
	}
	return nil
}

type identityHealthChecker struct {
	identity *appidentity.Identity
}

func (i identityHealthChecker) CheckHealth(context.Context) error {
	switch {
	case i.identity == nil:
		return errwrap.NewConfigInvalidError("app identity not loaded")
	case i.identity.BinaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.identity.EnvPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.identity.ConfigName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the rewards API server with graceful shutdown support.

Routes:
  • GET  /api/banks, POST /api/verify-account (Paystack proxies)
  • GET|POST /api/users/{userID}/claim
  • GET /api/tasks, GET /api/users/{userID}/tasks
  • POST /api/users/{userID}/tasks/{taskID}/verify|complete
  • GET /api/users/{userID}/wallet
  • GET /health, /health/live, /health/ready, /health/startup (health.enabled)
  • GET /metrics (metrics.enabled), /debug/pprof (debug.pprof_enabled)

Signals:
  • SIGINT or SIGTERM: graceful shutdown; Ctrl+C twice within 2s forces quit
  • SIGHUP: re-validate configuration (changes apply on restart)`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	rt, err := openRuntime(ctx, serveOverrides(cmd))
	if err != nil {
		observability.CLILogger.Error("Failed to initialize services", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "service initialization failed")
	}
	cfg := rt.cfg

	level := cfg.Logging.Level
	if override := cliLogLevel(); override != "" {
		level = override
	}
	observability.InitServerLoggerWithOptions(observability.ServerLoggerOptions{
		Service:   identity.BinaryName,
		Level:     level,
		Namespace: namespace,
		Profile:   cfg.Logging.Profile,
	})
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		port := cfg.Metrics.Port
		if port == 0 {
			port = defaultMetricsPort
		}
		if err := observability.InitMetrics(identity.BinaryName, port, namespace); err != nil {
			_ = rt.Close()
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
	}

	logger.Info("Services initialized",
		zap.String("service", identity.BinaryName),
		zap.String("version", versionInfo.Version),
		zap.String("state_backend", cfg.State.Backend),
		zap.String("store_driver", rt.store.Driver()),
		zap.String("store", rt.store.Location()),
		zap.Int("tasks", rt.tasks.Catalog.Len()),
		zap.Bool("trust_client_clock", rt.claims.TrustClientClock),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Int("metrics_port", observability.GetMetricsPort()))

	registerHealthChecks(identity, rt)
	handlers.SetAppIdentity(identity)
	handlers.SetRewardPolicies(rt.claims.Policy, rt.tasks.Policy)

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithAPI(rt.api()),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
		server.WithProbes(cfg.Health.Enabled),
		server.WithMetricsProxy(cfg.Metrics.Enabled),
		server.WithProfiler(cfg.Debug.PprofEnabled))

	registerLifecycle(srv, rt)
	return listenAndWait(ctx, srv)
}

func registerHealthChecks(identity *appidentity.Identity, rt *appRuntime) {
	handlers.InitHealthManager(versionInfo.Version)
	hm := handlers.GetHealthManager()
	hm.RegisterChecker("app_identity", identityHealthChecker{identity: identity})
	hm.RegisterChecker("store", rt.store)
	if rt.kv != nil {
		hm.RegisterChecker("redis", rt.kv)
	}
	if rt.cfg.Metrics.Enabled {
		hm.RegisterOptionalChecker("telemetry", telemetryHealthChecker{})
	}
}

// registerLifecycle wires shutdown and reload handlers. Shutdown handlers
// run last-registered first: the server drains, then stores close, then
// the logger flushes.
func registerLifecycle(srv *server.Server, rt *appRuntime) {
	logger := observability.ServerLogger
	timeout := rt.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	signals.OnShutdown(func(context.Context) error {
		if err := logger.Sync(); err != nil {
			// stdout and stderr often refuse sync; nothing to do about it
			logger.Debug("Logger sync returned error", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(context.Context) error {
		if err := rt.Close(); err != nil {
			logger.Warn("Failed to close state stores", zap.Error(err))
		}
		if err := observability.StopMetrics(); err != nil {
			logger.Warn("Failed to stop metrics exporter", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		if _, err := config.Load(ctx); err != nil {
			logger.Error("Configuration reload rejected", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}
		logger.Info("Configuration is valid; restart to apply changes")
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}
}

// listenAndWait serves until the signal listener completes shutdown or the
// listener fails.
func listenAndWait(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		errCh <- signals.Listen(ctx)
	}()

	if err := <-errCh; err != nil {
		observability.ServerLogger.Error("Server stopped with error", zap.Error(err))
		return errwrap.WrapInternal(ctx, err, "server error")
	}
	return nil
}

// serveOverrides forwards explicitly set flags as runtime config overrides.
func serveOverrides(cmd *cobra.Command) map[string]any {
	listen := map[string]any{}
	if cmd.Flags().Changed("host") {
		listen["host"] = serverHost
	}
	if cmd.Flags().Changed("port") {
		listen["port"] = serverPort
	}
	if len(listen) == 0 {
		return map[string]any{}
	}
	return map[string]any{"server": listen}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
}
