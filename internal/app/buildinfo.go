package app

import "fmt"

// Build information populated via -ldflags at build time.
var (
    BuildVersion = "0.0.0-dev"
    BuildCommit  = "unknown"
    BuildDate    = "unknown"
)

// VersionString is the one-line summary printed by -version.
func VersionString() string {
    return fmt.Sprintf("ircolors %s (commit %s, built %s)", BuildVersion, BuildCommit, BuildDate)
}
