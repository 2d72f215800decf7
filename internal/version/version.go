// Package version holds the build version, stamped at link time:
//
//	go build -ldflags "-X github.com/screa/proto-vanity-miner/internal/version.Version=$(git describe --tags)"
package version

import "strings"

// Version is overwritten by -ldflags. Builds without stamping report "dev".
var Version = "dev"

// String returns the trimmed version, falling back to "dev" when the stamp
// is empty (e.g. git describe ran outside a tagged checkout).
func String() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}
