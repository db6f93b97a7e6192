package config

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X genetrapfilter/internal/config.version=1.4.0 \
//	    -X genetrapfilter/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X genetrapfilter/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/genetrap-config
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linked build metadata. The loader stores it in
// Options.Build and the CLI prints it for -version.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
