package appid

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appidentityassets "github.com/earnbuzz/earnbuzz/internal/assets/appidentity"
)

// resetIdentity clears the process-wide identity cache and re-registers the
// embedded copy.
func resetIdentity(t *testing.T) {
	t.Helper()
	appidentity.Reset()
	require.NoError(t, appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML))
	t.Cleanup(func() { appidentity.Reset() })
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestGetFallsBackToEmbeddedIdentity(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, "")
	chdirTemp(t)

	identity, err := Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "earnbuzz", identity.BinaryName)
	assert.Equal(t, "EARNBUZZ_", identity.EnvPrefix)
}

func TestExplicitIdentityPathIsAuthoritative(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, filepath.Join(t.TempDir(), "missing-app.yaml"))

	_, err := Get(context.Background())
	require.Error(t, err)

	var notFound *appidentity.NotFoundError
	assert.True(t, errors.As(err, &notFound), "got %T: %v", err, err)
}

func TestEnvVar(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, "")
	chdirTemp(t)

	ctx := context.Background()
	assert.Equal(t, "EARNBUZZ_", EnvPrefix(ctx))
	assert.Equal(t, "EARNBUZZ_ADMIN_TOKEN", EnvVar(ctx, "admin_token"))
}

func TestEnvPrefixDefaultsWhenIdentityMissing(t *testing.T) {
	resetIdentity(t)
	t.Setenv(appidentity.EnvIdentityPath, filepath.Join(t.TempDir(), "missing-app.yaml"))

	assert.Equal(t, DefaultEnvPrefix, EnvPrefix(context.Background()))
}
