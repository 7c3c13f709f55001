// Package version holds build information injected with -ldflags.
package version

var (
	// Version is the released version of the console
	Version = "dev"
	// GitCommit is the commit the binary was built from
	GitCommit = "unknown"
	// BuildDate is the RFC3339 build timestamp
	BuildDate = "unknown"
)
