package config

// Build metadata variables, injected at link time via:
//
//	go build -ldflags "-X billmail/internal/config.version=... \
//	  -X billmail/internal/config.commit=... \
//	  -X billmail/internal/config.buildTime=..."
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the build metadata captured at link time.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
