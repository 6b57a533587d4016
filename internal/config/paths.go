package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/pathfinder"
)

var rootMarkers = []string{"go.mod", ".git"}

var (
	pathMu          sync.RWMutex
	explicitCfgFile string
)

// SetUserConfigFile replaces XDG discovery with a single user config file,
// as given by --config. An empty path restores discovery.
func SetUserConfigFile(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	explicitCfgFile = strings.TrimSpace(path)
}

// ciBoundaries lists workspace roots advertised by CI runners that contain
// cwd. They bound the upward search when the checkout lives outside $HOME.
func ciBoundaries(cwd string) []string {
	onCI := strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true") ||
		strings.EqualFold(strings.TrimSpace(os.Getenv("CI")), "true")
	if !onCI {
		return nil
	}

	var bounds []string
	for _, key := range []string{"FULMEN_WORKSPACE_ROOT", "GITHUB_WORKSPACE", "CI_PROJECT_DIR", "WORKSPACE"} {
		dir := strings.TrimSpace(os.Getenv(key))
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		dir = filepath.Clean(dir)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		if rel, err := filepath.Rel(dir, cwd); err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		bounds = append(bounds, dir)
	}
	return bounds
}

// findProjectRoot locates the directory holding config/ and schemas/.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	for _, bound := range ciBoundaries(cwd) {
		root, err := pathfinder.FindRepositoryRoot(cwd, rootMarkers,
			pathfinder.WithBoundary(bound),
			pathfinder.WithMaxDepth(20),
		)
		if err == nil {
			return root, nil
		}
	}

	root, err := pathfinder.FindRepositoryRoot(cwd, rootMarkers, pathfinder.WithMaxDepth(10))
	if err != nil {
		return "", fmt.Errorf("project root not found: %w", err)
	}
	return root, nil
}

// appNames returns the identity's config and binary names, defaulting to earnbuzz.
func appNames() (configName, binaryName string) {
	configName, binaryName = "earnbuzz", "earnbuzz"
	if appIdentity == nil {
		return configName, binaryName
	}
	if name := strings.TrimSpace(appIdentity.BinaryName); name != "" {
		binaryName = name
		configName = name
	}
	if name := strings.TrimSpace(appIdentity.ConfigName); name != "" {
		configName = name
	}
	return configName, binaryName
}

// userConfigPaths lists the XDG config files checked for user overrides. A
// binary name that differs from the config name is searched as a legacy location.
func userConfigPaths() []string {
	pathMu.RLock()
	explicit := explicitCfgFile
	pathMu.RUnlock()
	if explicit != "" {
		return []string{explicit}
	}
	if appIdentity == nil {
		return nil
	}
	configName, binaryName := appNames()
	var legacy []string
	if binaryName != configName {
		legacy = append(legacy, binaryName)
	}
	return gfconfig.GetAppConfigPaths(configName, legacy...)
}

// DefaultConfigPath returns the user config file path, or "" when the XDG
// config directory cannot be resolved.
func DefaultConfigPath() string {
	configName, _ := appNames()
	dir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDataDir returns the app's XDG data directory.
func DefaultDataDir() string {
	configName, _ := appNames()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns where the embedded database lives when neither
// store.path nor store.url is set.
func DefaultStorePath() string {
	_, binaryName := appNames()
	dir := DefaultDataDir()
	if strings.TrimSpace(dir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dir, binaryName+".db")
}
