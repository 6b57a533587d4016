package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// Build metadata, injected from main through SetVersionInfo.
var (
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"

	appIdentity *appidentity.Identity
	rewardInfo  *RewardInfo
)

func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

func SetAppIdentity(identity *appidentity.Identity) {
	appIdentity = identity
}

// SetRewardPolicies publishes the effective reward timings on /version so
// clients can render countdowns without hard-coding them.
func SetRewardPolicies(claims claim.Policy, tasks task.Policy) {
	rewardInfo = &RewardInfo{
		ClaimCreditAmount:    claims.CreditAmount,
		ClaimCooldownSeconds: int64(claims.Cooldown.Seconds()),
		ClaimBurstLimit:      claims.BurstLimit,
		ClaimPauseSeconds:    int64(claims.Pause.Seconds()),
		TaskVerifySeconds:    int64(tasks.VerificationDelay.Seconds()),
		TaskCooldownSeconds:  int64(tasks.Cooldown.Seconds()),
	}
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	App          AppInfo     `json:"app"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
	Rewards      *RewardInfo `json:"rewards,omitempty"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// RewardInfo mirrors the claim and task policies the server enforces.
type RewardInfo struct {
	ClaimCreditAmount    int64 `json:"claim_credit_amount"`
	ClaimCooldownSeconds int64 `json:"claim_cooldown_seconds"`
	ClaimBurstLimit      int   `json:"claim_burst_limit"`
	ClaimPauseSeconds    int64 `json:"claim_pause_seconds"`
	TaskVerifySeconds    int64 `json:"task_verify_seconds"`
	TaskCooldownSeconds  int64 `json:"task_cooldown_seconds"`
}

func appName() string {
	if appIdentity != nil && appIdentity.BinaryName != "" {
		return appIdentity.BinaryName
	}
	if len(os.Args) > 0 && os.Args[0] != "" {
		return filepath.Base(os.Args[0])
	}
	return "unknown"
}

// VersionHandler reports build, dependency and runtime details.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	deps := crucible.GetVersion()

	writeJSON(w, http.StatusOK, VersionResponse{
		App: AppInfo{
			Name:      appName(),
			Version:   AppVersion,
			Commit:    AppCommit,
			BuildDate: AppBuildDate,
			GoVersion: runtime.Version(),
		},
		Dependencies: DepInfo{
			Gofulmen: deps.Gofulmen,
			Crucible: deps.Crucible,
		},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
		Rewards: rewardInfo,
	})
}
