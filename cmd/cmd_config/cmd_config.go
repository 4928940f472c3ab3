// file: jsbridge/cmd/cmd_config/cmd_config.go
package cmd_config

import (
	"github.com/spf13/cobra"

	"github.com/rskv-p/jsbridge/config"
)

// Cmd prints the effective configuration after file, env and flag overrides.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Dump(cmd.OutOrStdout())
		return nil
	},
}
