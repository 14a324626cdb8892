// Package version holds the symbolic version of this build.
package version

// Version is set at build time via -ldflags "-X".
var Version = "v0.0.0-dev"
