// Package version carries build metadata injected with -ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/pingtriage/internal/version.Version=v3.2.1"
package version

import "fmt"

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version. The state document
// schema version is reported separately because it changes independently of
// the binary.
func String(schemaVersion string) string {
	return fmt.Sprintf("pingtriage %s (commit %s, built %s, schema %s)", Version, GitCommit, BuildTime, schemaVersion)
}
