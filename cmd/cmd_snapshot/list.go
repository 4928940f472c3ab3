// file: jsbridge/cmd/cmd_snapshot/list.go
package cmd_snapshot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// listCmd prints every stored image
var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored images",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		metas, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("NAME", "SIZE", "CREATED").
			StyleFunc(func(row, col int) lipgloss.Style {
				s := lipgloss.NewStyle().Padding(0, 1)
				if row == table.HeaderRow {
					return s.Inherit(headerStyle)
				}
				return s
			})
		for _, m := range metas {
			t.Row(m.Name, strconv.FormatInt(m.Size, 10), m.Created.Format(time.RFC3339))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	Cmd.AddCommand(listCmd)
}
