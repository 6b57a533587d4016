package server

import (
	"context"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/appid"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server/handlers"
)

const (
	adminSignalRate  = 10
	adminSignalBurst = 5
)

func (s *Server) registerRoutes() {
	if s.probes {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
		s.router.Get("/health/startup", handlers.StartupHandler)
	}
	s.router.Get("/version", handlers.VersionHandler)
	if s.metrics {
		s.router.Get("/metrics", MetricsHandler)
	}
	if s.profiler {
		s.router.Mount("/debug", middleware.Profiler())
		logInfo("Profiler enabled", zap.String("path", "/debug/pprof"))
	}

	if s.api != nil {
		s.router.Route("/api", s.api.Mount)
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes POST /admin/signal when the ADMIN_TOKEN
// variable is set. It lets operators trigger reload and shutdown over HTTP.
func (s *Server) registerAdminEndpoint() {
	tokenVar := appid.EnvVar(context.Background(), "ADMIN_TOKEN")
	adminToken := os.Getenv(tokenVar)
	if adminToken == "" {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Debug("Admin signal endpoint disabled", zap.String("env", tokenVar))
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: adminSignalRate,
		RateBurst: adminSignalBurst,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	logInfo("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.Int("rate_per_minute", adminSignalRate),
		zap.Int("burst", adminSignalBurst))
}

func logInfo(msg string, fields ...zap.Field) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info(msg, fields...)
	}
}
