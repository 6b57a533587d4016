package config

import (
	"os"
	"strings"

	gfconfig "github.com/fulmenhq/gofulmen/config"
)

// EnvVarSpec maps one {PREFIX}{NAME} variable onto a config path.
type EnvVarSpec = gfconfig.EnvVarSpec

const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// PaystackKeyEnvFallbacks are the provider key variables honored when
// paystack.secret_key is not configured through the app prefix.
var PaystackKeyEnvFallbacks = []string{"PAYSTACK_SECRET_KEY", "NEXT_PUBLIC_PAYSTACK_SECRET_KEY"}

func at(path string) []string { return strings.Split(path, ".") }

// envBindings hold unprefixed names. Durations and floats bind as strings;
// the decode hooks convert them.
var envBindings = []EnvVarSpec{
	{Name: "HOST", Path: at("server.host"), Type: EnvString},
	{Name: "PORT", Path: at("server.port"), Type: EnvInt},
	{Name: "READ_TIMEOUT", Path: at("server.read_timeout"), Type: EnvString},
	{Name: "WRITE_TIMEOUT", Path: at("server.write_timeout"), Type: EnvString},
	{Name: "IDLE_TIMEOUT", Path: at("server.idle_timeout"), Type: EnvString},
	{Name: "SHUTDOWN_TIMEOUT", Path: at("server.shutdown_timeout"), Type: EnvString},

	{Name: "LOG_LEVEL", Path: at("logging.level"), Type: EnvString},
	{Name: "LOG_PROFILE", Path: at("logging.profile"), Type: EnvString},

	{Name: "DB_DRIVER", Path: at("store.driver"), Type: EnvString},
	{Name: "DB_PATH", Path: at("store.path"), Type: EnvString},
	{Name: "DB_URL", Path: at("store.url"), Type: EnvString},
	{Name: "DB_AUTH_TOKEN", Path: at("store.auth_token"), Type: EnvString},

	{Name: "STATE_BACKEND", Path: at("state.backend"), Type: EnvString},
	{Name: "REDIS_ADDR", Path: at("redis.addr"), Type: EnvString},
	{Name: "REDIS_PASSWORD", Path: at("redis.password"), Type: EnvString},
	{Name: "REDIS_DB", Path: at("redis.db"), Type: EnvInt},
	{Name: "REDIS_PREFIX", Path: at("redis.prefix"), Type: EnvString},

	{Name: "PAYSTACK_BASE_URL", Path: at("paystack.base_url"), Type: EnvString},
	{Name: "PAYSTACK_SECRET_KEY", Path: at("paystack.secret_key"), Type: EnvString},
	{Name: "PAYSTACK_TIMEOUT", Path: at("paystack.timeout"), Type: EnvString},
	{Name: "PAYSTACK_CACHE_TTL", Path: at("paystack.cache_ttl"), Type: EnvString},
	{Name: "PAYSTACK_CACHE_BACKEND", Path: at("paystack.cache_backend"), Type: EnvString},
	{Name: "PAYSTACK_REQUESTS_PER_SECOND", Path: at("paystack.requests_per_second"), Type: EnvString},
	{Name: "PAYSTACK_BURST", Path: at("paystack.burst"), Type: EnvInt},

	{Name: "CLAIMS_CREDIT_AMOUNT", Path: at("claims.credit_amount"), Type: EnvInt},
	{Name: "CLAIMS_COOLDOWN", Path: at("claims.cooldown"), Type: EnvString},
	{Name: "CLAIMS_BURST_LIMIT", Path: at("claims.burst_limit"), Type: EnvInt},
	{Name: "CLAIMS_PAUSE", Path: at("claims.pause"), Type: EnvString},
	{Name: "CLAIMS_TRUST_CLIENT_CLOCK", Path: at("claims.trust_client_clock"), Type: EnvBool},

	{Name: "TASKS_CATALOG_PATH", Path: at("tasks.catalog_path"), Type: EnvString},
	{Name: "TASKS_VERIFICATION_DELAY", Path: at("tasks.verification_delay"), Type: EnvString},
	{Name: "TASKS_COOLDOWN", Path: at("tasks.cooldown"), Type: EnvString},

	{Name: "WALLET_HISTORY_LIMIT", Path: at("wallet.history_limit"), Type: EnvInt},

	{Name: "METRICS_ENABLED", Path: at("metrics.enabled"), Type: EnvBool},
	{Name: "METRICS_PORT", Path: at("metrics.port"), Type: EnvInt},
	{Name: "HEALTH_ENABLED", Path: at("health.enabled"), Type: EnvBool},
	{Name: "DEBUG_ENABLED", Path: at("debug.enabled"), Type: EnvBool},
	{Name: "DEBUG_PPROF_ENABLED", Path: at("debug.pprof_enabled"), Type: EnvBool},
}

// getEnvSpecs expands envBindings with the identity's env prefix.
func getEnvSpecs() []EnvVarSpec {
	if appIdentity == nil {
		return nil
	}
	prefix := appIdentity.EnvPrefix
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	specs := make([]EnvVarSpec, 0, len(envBindings))
	for _, spec := range envBindings {
		spec.Name = prefix + spec.Name
		specs = append(specs, spec)
	}
	return specs
}

func paystackKeyFromEnv() string {
	for _, key := range PaystackKeyEnvFallbacks {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}
