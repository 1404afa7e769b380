// Package version holds build-time version information, set via ldflags.
package version

var (
	// Version is the release version, e.g. "1.2.0". Set at build time.
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"
)
