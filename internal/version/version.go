// Package version holds the build-time version string shared by frog and
// frog-agent, set via -ldflags at release build time and left at "dev"
// otherwise.
package version

// Version is overridden at build time with -ldflags
// "-X github.com/griffithind/frog/internal/version.Version=...".
var Version = "dev"
