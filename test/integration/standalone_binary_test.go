package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles cmd/earnbuzz into a directory outside the repo so the
// embedded app identity is the only one available.
func buildBinary(t *testing.T) (binary string, workDir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary test is unix-only")
	}
	if testing.Short() {
		t.Skip("builds the binary")
	}

	gomod, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err)
	repoRoot := filepath.Dir(strings.TrimSpace(string(gomod)))
	require.NotEqual(t, ".", repoRoot)

	workDir = t.TempDir()
	binary = filepath.Join(workDir, "earnbuzz")
	build := exec.Command("go", "build", "-o", binary, "./cmd/earnbuzz")
	build.Dir = repoRoot
	build.Env = os.Environ()
	out, err := build.CombinedOutput()
	require.NoError(t, err, string(out))
	return binary, workDir
}

func runBinary(t *testing.T, binary, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "FULMEN_APP_IDENTITY_PATH=")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s: %s", strings.Join(args, " "), out)
	return string(out)
}

func TestStandaloneBinaryOutsideRepo(t *testing.T) {
	binary, dir := buildBinary(t)

	assert.True(t, strings.HasPrefix(runBinary(t, binary, dir, "version"), "earnbuzz "))

	help := runBinary(t, binary, dir, "--help")
	for _, sub := range []string{"serve", "claim", "tasks", "wallet", "banks"} {
		assert.Contains(t, help, sub)
	}
}
