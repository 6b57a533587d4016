package config

import (
	"time"
)

// Config is the merged earnbuzz configuration. See Load for the layering.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	State    StateConfig    `mapstructure:"state"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Paystack PaystackConfig `mapstructure:"paystack"`
	Claims   ClaimsConfig   `mapstructure:"claims"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the libsql database: a local file, :memory:, or a
// remote Turso URL with an auth token.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// StateConfig selects where per-user claim and task state lives.
type StateConfig struct {
	// Backend is libsql (default) or redis.
	Backend string `mapstructure:"backend"`
}

// RedisConfig configures the key-value state backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PaystackConfig contains the payments provider settings used by the bank
// directory and account resolver proxies.
type PaystackConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	SecretKey string        `mapstructure:"secret_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// CacheBackend is memory (default) or libsql.
	CacheBackend string `mapstructure:"cache_backend"`

	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ClaimsConfig tunes the periodic reward claim.
type ClaimsConfig struct {
	CreditAmount int64         `mapstructure:"credit_amount"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	BurstLimit   int           `mapstructure:"burst_limit"`
	Pause        time.Duration `mapstructure:"pause"`

	// TrustClientClock accepts a caller-reported timestamp on claim requests.
	TrustClientClock bool `mapstructure:"trust_client_clock"`
}

// TasksConfig configures social task rewards.
type TasksConfig struct {
	CatalogPath       string        `mapstructure:"catalog_path"`
	VerificationDelay time.Duration `mapstructure:"verification_delay"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
}

// WalletConfig configures wallet reads.
type WalletConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// LoggingConfig configures the server logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Profile "simple" logs human-readable console lines; anything else
	// logs structured JSON.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig configures the Prometheus exporter proxied at /metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig toggles debug mode. pprof must stay off in production.
type DebugConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
