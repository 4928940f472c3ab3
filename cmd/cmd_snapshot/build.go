// file: jsbridge/cmd/cmd_snapshot/build.go
package cmd_snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rskv-p/jsbridge/cmd/cmd_run"
	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/pkg/x_rtm/js"
	"github.com/rskv-p/jsbridge/snapshot"

	"github.com/spf13/cobra"
)

var (
	buildName string
	buildBase string
)

// buildCmd executes a script and stores the resulting image
var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Run a script and store the resulting image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		file := args[0]

		name := buildName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		if err := snapshot.ValidateName(name); err != nil {
			return err
		}

		src, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		base, err := cmd_run.LoadImage(ctx, cfg, buildBase)
		if err != nil {
			return err
		}

		r := cmd_run.NewBuiltins([]string{file})
		iso, err := js.New(js.Options{
			Name:           name,
			Recv:           r.Transport(ctx),
			Print:          func(s string) { fmt.Fprintln(cmd.ErrOrStderr(), s) },
			Image:          base,
			MaxMessageSize: cfg.MaxMessageSize,
		})
		if err != nil {
			return err
		}
		defer iso.Dispose()

		if err := iso.ExecuteContext(ctx, file, string(src)); err != nil {
			if last := iso.LastException(); last != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), last)
			}
			return fmt.Errorf("%s: %w", file, err)
		}

		img, err := iso.Snapshot()
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := snapshot.SaveImage(ctx, store, name, img); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Snapshot saved: %s (%d scripts, %d blobs)\n", name, len(img.Scripts), len(img.Blobs))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildName, "name", "n", "", "image name (default: file name without extension)")
	buildCmd.Flags().StringVar(&buildBase, "from", "", "start from this stored image")
	Cmd.AddCommand(buildCmd)
}
