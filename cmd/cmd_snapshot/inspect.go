// file: jsbridge/cmd/cmd_snapshot/inspect.go
package cmd_snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rskv-p/jsbridge/snapshot"

	"github.com/spf13/cobra"
)

var inspectJSON bool

type imageSummary struct {
	Name    string        `json:"name"`
	Version uint32        `json:"version"`
	Created time.Time     `json:"created"`
	Scripts []unitSummary `json:"scripts"`
	Blobs   []unitSummary `json:"blobs"`
}

type unitSummary struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// inspectCmd decodes a stored image and prints what it contains
var inspectCmd = &cobra.Command{
	Use:   "inspect <name>",
	Short: "Show the scripts and blobs in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		img, err := snapshot.LoadImage(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		sum := summarize(args[0], img)

		out := cmd.OutOrStdout()
		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}

		fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Image:"), sum.Name)
		fmt.Fprintf(out, "Version: %d\nCreated: %s\n", sum.Version, sum.Created.Format(time.RFC3339))
		fmt.Fprintln(out, headerStyle.Render("Scripts:"))
		for _, s := range sum.Scripts {
			fmt.Fprintf(out, "  %s (%d bytes)\n", s.Name, s.Size)
		}
		fmt.Fprintln(out, headerStyle.Render("Blobs:"))
		for _, b := range sum.Blobs {
			fmt.Fprintf(out, "  %s (%d bytes)\n", b.Name, b.Size)
		}
		return nil
	},
}

func summarize(name string, img *snapshot.Image) imageSummary {
	sum := imageSummary{
		Name:    name,
		Version: img.Version,
		Created: img.Created,
		Scripts: []unitSummary{},
		Blobs:   []unitSummary{},
	}
	for _, s := range img.Scripts {
		sum.Scripts = append(sum.Scripts, unitSummary{Name: s.Name, Size: len(s.Source)})
	}
	for _, b := range img.Blobs {
		sum.Blobs = append(sum.Blobs, unitSummary{Name: string(b.ID), Size: len(b.Data)})
	}
	return sum
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print as JSON")
	Cmd.AddCommand(inspectCmd)
}
