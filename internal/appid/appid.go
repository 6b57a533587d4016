package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/earnbuzz/earnbuzz/internal/assets/appidentity"
)

// DefaultEnvPrefix is used when no identity can be loaded.
const DefaultEnvPrefix = "EARNBUZZ_"

func init() {
	// FULMEN_APP_IDENTITY_PATH and .fulmen/app.yaml still take precedence;
	// the embedded copy lets a standalone binary start anywhere.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get loads the application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity's environment prefix, always ending in "_".
func EnvPrefix(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil || strings.TrimSpace(identity.EnvPrefix) == "" {
		return DefaultEnvPrefix
	}
	prefix := strings.TrimSpace(identity.EnvPrefix)
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// EnvVar builds the full variable name for key, e.g. EnvVar(ctx, "ADMIN_TOKEN").
func EnvVar(ctx context.Context, key string) string {
	return EnvPrefix(ctx) + strings.ToUpper(key)
}
