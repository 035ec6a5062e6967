// Command glance captures on-screen content and ingests it into a local store.
package main

import (
	"os"

	"github.com/custodia-labs/glance/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
