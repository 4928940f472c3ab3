// file: jsbridge/cmd/cmd_snapshot/remove.go
package cmd_snapshot

import (
	"fmt"

	"github.com/spf13/cobra"
)

// removeCmd deletes a stored image
var removeCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"remove"},
	Short:   "Delete a stored image",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🗑️  Snapshot removed:", args[0])
		return nil
	},
}

func init() {
	Cmd.AddCommand(removeCmd)
}
