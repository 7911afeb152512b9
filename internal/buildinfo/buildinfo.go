// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import "fmt"

// Version and BuildDate are injected at build time via ldflags.
var (
	Version   = "unknown"
	BuildDate = "unknown"
)

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("%s (built %s)", Version, BuildDate)
}
