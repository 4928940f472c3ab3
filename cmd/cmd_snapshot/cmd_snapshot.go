// file: jsbridge/cmd/cmd_snapshot/cmd_snapshot.go
package cmd_snapshot

import (
	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/snapshot"

	"github.com/spf13/cobra"
)

// Cmd groups the snapshot image commands.
var Cmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build and manage snapshot images",
}

func openStore(cmd *cobra.Command) (snapshot.Store, error) {
	return snapshot.OpenStore(config.FromContext(cmd.Context()).Snapshot)
}
