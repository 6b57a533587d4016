// Package config loads earnbuzz configuration in three layers using
// gofulmen/config: Crucible defaults (config/earnbuzz/v0/earnbuzz-defaults.yaml),
// user overrides from the XDG config directory, then environment variables and
// runtime overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/schema"
	"github.com/go-viper/mapstructure/v2"

	"github.com/earnbuzz/earnbuzz/internal/appid"
)

var (
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity
)

// Load merges every configuration layer, validates the result and makes it
// the current configuration. It is safe to call again to reload.
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	root, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	merged, diagnostics, err := gfconfig.LoadLayeredConfig(gfconfig.LayeredConfigOptions{
		Category:     "earnbuzz",
		Version:      "v0",
		DefaultsFile: "earnbuzz-defaults.yaml",
		SchemaID:     "earnbuzz/v0/config",
		UserPaths:    userConfigPaths(),
		Catalog:      schema.NewCatalog(filepath.Join(root, "schemas")),
		DefaultsRoot: filepath.Join(root, "config"),
	}, append([]map[string]any{envOverrides}, runtimeOverrides...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load layered config: %w", err)
	}
	for _, diag := range diagnostics {
		fmt.Fprintf(os.Stderr, "Config validation: %s: %s\n", diag.Pointer, diag.Message)
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	if strings.TrimSpace(cfg.Paystack.SecretKey) == "" {
		cfg.Paystack.SecretKey = paystackKeyFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func decode(merged map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with. Zero reward
// settings are allowed and fall back to the built-in policy.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 0 && c.Server.Port <= 65535, "server.port out of range: %d", c.Server.Port)
	check(c.Metrics.Port >= 0 && c.Metrics.Port <= 65535, "metrics.port out of range: %d", c.Metrics.Port)
	check(oneOf(c.State.Backend, "", "libsql", "redis"), "state.backend must be libsql or redis, got %q", c.State.Backend)
	check(oneOf(c.Paystack.CacheBackend, "", "memory", "libsql"), "paystack.cache_backend must be memory or libsql, got %q", c.Paystack.CacheBackend)
	check(c.Paystack.RequestsPerSecond >= 0, "paystack.requests_per_second must not be negative")
	check(c.Claims.CreditAmount >= 0, "claims.credit_amount must not be negative")
	check(c.Claims.Cooldown >= 0, "claims.cooldown must not be negative")
	check(c.Claims.BurstLimit >= 0, "claims.burst_limit must not be negative")
	check(c.Claims.Pause >= 0, "claims.pause must not be negative")
	check(c.Tasks.VerificationDelay >= 0, "tasks.verification_delay must not be negative")
	check(c.Tasks.Cooldown >= 0, "tasks.cooldown must not be negative")
	check(c.Wallet.HistoryLimit >= 0, "wallet.history_limit must not be negative")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func oneOf(value string, allowed ...string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// GetConfig returns the configuration from the last successful Load.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
