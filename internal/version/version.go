// Package version exposes build information set via -ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/stocklab/stocklab/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
