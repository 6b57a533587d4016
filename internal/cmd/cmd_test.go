package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/earnbuzz/earnbuzz/internal/config"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "0123456789", digitsOnly(" 012-345 6789 "))
	assert.Equal(t, "", digitsOnly("abc"))
}

func TestBuildInitConfig(t *testing.T) {
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(buildInitConfig("sk_test_123")), &parsed))

	paystack, ok := parsed["paystack"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sk_test_123", paystack["secret_key"])

	require.NoError(t, yaml.Unmarshal([]byte(buildInitConfig("")), &parsed))
	paystack, ok = parsed["paystack"].(map[string]any)
	require.True(t, ok)
	_, hasKey := paystack["secret_key"]
	assert.False(t, hasKey)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EARNBUZZ_DOTENV_SAMPLE=from-file\n"), 0600))

	t.Setenv("EARNBUZZ_DOTENV_SAMPLE", "")
	require.NoError(t, os.Unsetenv("EARNBUZZ_DOTENV_SAMPLE"))
	loadDotenv(path)
	assert.Equal(t, "from-file", os.Getenv("EARNBUZZ_DOTENV_SAMPLE"))

	t.Setenv("EARNBUZZ_DOTENV_SAMPLE", "from-env")
	loadDotenv(path)
	assert.Equal(t, "from-env", os.Getenv("EARNBUZZ_DOTENV_SAMPLE"))

	loadDotenv(filepath.Join(dir, "missing.env"))
}

func TestServeOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().StringVar(&serverHost, "host", "localhost", "")
	cmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "")

	assert.Empty(t, serveOverrides(cmd))

	require.NoError(t, cmd.Flags().Set("port", "9999"))
	overrides := serveOverrides(cmd)
	assert.Equal(t, map[string]any{"server": map[string]any{"port": 9999}}, overrides)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "claim.status.user-42", sanitizeFilename("claim.status.User 42"))
	assert.Equal(t, "output", sanitizeFilename("  "))
}

func outputCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "view"}
	addOutputFlags(cmd)
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func TestReadOutputOptions(t *testing.T) {
	opts, err := readOutputOptions(outputCommand(t, nil))
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, opts.format)
	assert.Empty(t, opts.destination("wallet.ada"))

	dir := t.TempDir()
	opts, err = readOutputOptions(outputCommand(t, map[string]string{"output-format": "json", "out-dir": dir}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wallet.ada.json"), opts.destination("wallet.ADA"))

	_, err = readOutputOptions(outputCommand(t, map[string]string{"out": "a.txt", "out-dir": dir}))
	assert.Error(t, err)

	_, err = readOutputOptions(outputCommand(t, map[string]string{"output-format": "yaml"}))
	assert.Error(t, err)
}

func TestEmitViewWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "claim.md")
	cmd := outputCommand(t, map[string]string{"output-format": "markdown", "out": target})

	err := emitView(cmd, "claim.status.ada", func(f output.Formatter) (string, error) {
		return "# ready", nil
	})
	require.NoError(t, err)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "# ready\n", string(written))
}

func TestWriteRewardPolicyFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	writeRewardPolicy(&buf, &config.Config{
		Claims: config.ClaimsConfig{Cooldown: 90 * time.Second},
	})

	out := buf.String()
	assert.Contains(t, out, "Claim: 1000 per claim, cooldown 1m30s, pause 5h0m0s after 50 claims")
	assert.Contains(t, out, "Tasks: verification 20s, repeat after 24h0m0s")
}

func TestIdentityHealthChecker(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, identityHealthChecker{}.CheckHealth(ctx))
	assert.Error(t, identityHealthChecker{identity: &appidentity.Identity{BinaryName: "earnbuzz"}}.CheckHealth(ctx))
	assert.NoError(t, identityHealthChecker{identity: &appidentity.Identity{
		BinaryName: "earnbuzz",
		EnvPrefix:  "EARNBUZZ_",
		ConfigName: "earnbuzz",
	}}.CheckHealth(ctx))
}

func TestTelemetryHealthCheckerWithoutExporter(t *testing.T) {
	require.NoError(t, observability.StopMetrics())
	assert.Error(t, telemetryHealthChecker{}.CheckHealth(context.Background()))
}
