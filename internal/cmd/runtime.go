package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/engine"
	"github.com/earnbuzz/earnbuzz/internal/core/kvstore"
	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/core/store"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server/handlers"
)

const (
	backendLibsql = "libsql"
	backendRedis  = "redis"
	backendMemory = "memory"
)

// appRuntime holds the services shared by serve and the admin commands.
type appRuntime struct {
	cfg   *config.Config
	store *store.Store
	kv    *kvstore.Store

	claims    *engine.ClaimService
	tasks     *engine.TaskService
	wallets   *engine.WalletService
	directory *paystack.Directory
	resolver  *paystack.Resolver
}

func claimPolicy(cfg config.ClaimsConfig) claim.Policy {
	return claim.Policy{
		CreditAmount: cfg.CreditAmount,
		Cooldown:     cfg.Cooldown,
		BurstLimit:   cfg.BurstLimit,
		Pause:        cfg.Pause,
	}.Normalize()
}

func taskPolicy(cfg config.TasksConfig) task.Policy {
	return task.Policy{
		VerificationDelay: cfg.VerificationDelay,
		Cooldown:          cfg.Cooldown,
	}.Normalize()
}

func openRuntime(ctx context.Context, overrides ...map[string]any) (*appRuntime, error) {
	cfg, err := config.Load(ctx, overrides...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return buildRuntime(ctx, cfg)
}

func buildRuntime(ctx context.Context, cfg *config.Config) (*appRuntime, error) {
	db, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	rt := &appRuntime{cfg: cfg, store: db}

	var claimStates engine.ClaimStateStore = db
	var taskStates engine.TaskStateStore = db
	switch backend := strings.ToLower(strings.TrimSpace(cfg.State.Backend)); backend {
	case "", backendLibsql:
	case backendRedis:
		kv, err := kvstore.Open(ctx, cfg.Redis)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.kv = kv
		claimStates = kv
		taskStates = kv
	default:
		_ = rt.Close()
		return nil, fmt.Errorf("unsupported state backend: %s", backend)
	}

	catalog, err := loadCatalog(cfg.Tasks.CatalogPath)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.claims = &engine.ClaimService{
		States:           claimStates,
		Ledger:           db,
		Policy:           claimPolicy(cfg.Claims),
		TrustClientClock: cfg.Claims.TrustClientClock,
	}
	rt.tasks = &engine.TaskService{
		States:  taskStates,
		Ledger:  db,
		Catalog: catalog,
		Policy:  taskPolicy(cfg.Tasks),
	}
	rt.wallets = &engine.WalletService{Ledger: db, HistoryLimit: cfg.Wallet.HistoryLimit}

	client := newPaystackClient(cfg.Paystack)
	var cache paystack.DirectoryCache
	switch strings.ToLower(strings.TrimSpace(cfg.Paystack.CacheBackend)) {
	case backendLibsql:
		cache = db.BankDirectoryCache()
	case "", backendMemory:
		cache = paystack.NewMemoryCache()
	default:
		_ = rt.Close()
		return nil, fmt.Errorf("unsupported paystack cache backend: %s", cfg.Paystack.CacheBackend)
	}
	rt.directory = &paystack.Directory{Client: client, Cache: cache, TTL: cfg.Paystack.CacheTTL}
	rt.resolver = &paystack.Resolver{Client: client}

	if !client.HasCredential() {
		logger := observability.CLILogger
		if observability.ServerLogger != nil {
			logger = observability.ServerLogger
		}
		if logger != nil {
			logger.Warn("Paystack secret key not configured; bank routes will report a configuration error",
				zap.Strings("env_fallbacks", config.PaystackKeyEnvFallbacks))
		}
	}

	return rt, nil
}

func newPaystackClient(cfg config.PaystackConfig) *paystack.Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = paystack.DefaultBaseURL
	}
	return paystack.NewClient(baseURL, cfg.SecretKey, cfg.Timeout, cfg.RequestsPerSecond, cfg.Burst)
}

func loadCatalog(path string) (*task.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return task.DefaultCatalog()
	}
	return task.LoadCatalog(path)
}

func (r *appRuntime) api() *handlers.API {
	return &handlers.API{
		Claims:    r.claims,
		Tasks:     r.tasks,
		Wallets:   r.wallets,
		Directory: r.directory,
		Resolver:  r.resolver,
	}
}

func (r *appRuntime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.kv != nil {
		errs = append(errs, r.kv.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}
