// mocks-server starts the mock server with the admin API.
package main

import "github.com/mocks-server/mocks-server/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Execute(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
}
