// file: jsbridge/cmd/cmd_run/cmd_run.go
package cmd_run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/pkg/x_rtm/js"
	"github.com/rskv-p/jsbridge/router"
	"github.com/rskv-p/jsbridge/snapshot"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

var (
	snapshotName string
	argvFlag     string
)

// Cmd runs one script to completion.
var Cmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a script with the built-in commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		file := args[0]

		argv, err := shlex.Split(argvFlag)
		if err != nil {
			return fmt.Errorf("parse --argv: %w", err)
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		img, err := LoadImage(ctx, cfg, snapshotName)
		if err != nil {
			return err
		}

		r := NewBuiltins(append([]string{file}, argv...))
		iso, err := js.New(js.Options{
			Name:           filepath.Base(file),
			Recv:           r.Transport(ctx),
			Print:          func(s string) { fmt.Fprintln(cmd.OutOrStdout(), s) },
			Image:          img,
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
		return nil
	},
}

// NewBuiltins returns a router serving start and codeFetch for argv.
func NewBuiltins(argv []string) *router.Router {
	l := x_log.New("router")
	r := router.NewRouter(
		router.Name("builtins"),
		router.WithLogger(l),
		router.UseMiddleware(router.Recover("builtins"), router.Logging(l)),
	)
	cwd, _ := os.Getwd()
	r.AddMany(router.Builtins(router.Env{Cwd: cwd, Argv: argv}))
	return r
}

// LoadImage loads the named image from the configured store. An empty name yields nil.
func LoadImage(ctx context.Context, cfg *config.Config, name string) (*snapshot.Image, error) {
	if name == "" {
		return nil, nil
	}
	store, err := snapshot.OpenStore(cfg.Snapshot)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	img, err := snapshot.LoadImage(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return img, nil
}

func init() {
	Cmd.Flags().StringVarP(&snapshotName, "snapshot", "s", "", "restore this stored image first")
	Cmd.Flags().StringVar(&argvFlag, "argv", "", "arguments exposed to the script through start")
}
