// file: jsbridge/cmd/cmd_serve/cmd_serve.go
package cmd_serve

import (
	"context"
	"fmt"
	"os"

	"github.com/rskv-p/jsbridge/cmd/cmd_run"
	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/fault"
	"github.com/rskv-p/jsbridge/pkg/x_api"
	"github.com/rskv-p/jsbridge/pkg/x_bus"
	"github.com/rskv-p/jsbridge/pkg/x_host"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/pkg/x_rtm/js"
	"github.com/rskv-p/jsbridge/snapshot"

	"github.com/spf13/cobra"
)

var (
	snapshotName string
	noBuiltins   bool
)

// Cmd runs a long-lived isolate behind NATS and the HTTP API.
var Cmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve an isolate over NATS and HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		cfg := config.FromContext(ctx)
		log := x_log.New("serve")

		// Bus
		url := cfg.NATS.URL
		if cfg.NATS.Embedded {
			ns, err := x_bus.StartEmbedded(cfg.NATS.Host, cfg.NATS.Port)
			if err != nil {
				return err
			}
			defer ns.Shutdown()
			url = ns.ClientURL()
			log.Info().Str("url", url).Msg("embedded nats-server started")
		}
		nc, err := x_bus.Connect(url)
		if err != nil {
			return err
		}
		defer nc.Close()

		// Store
		store, err := snapshot.OpenStore(cfg.Snapshot)
		if err != nil {
			return err
		}
		defer store.Close()

		var img *snapshot.Image
		if snapshotName != "" {
			if img, err = snapshot.LoadImage(ctx, store, snapshotName); err != nil {
				return fmt.Errorf("load snapshot %s: %w", snapshotName, err)
			}
		}

		// Isolate
		iso, err := js.New(js.Options{
			Name:           cfg.Name,
			Recv:           x_bus.Outbound(nc, cfg.NATS.OutSubject, cfg.NATS.Timeout),
			Print:          func(s string) { fmt.Fprintln(cmd.OutOrStdout(), s) },
			Image:          img,
			MaxMessageSize: cfg.MaxMessageSize,
			OnFault: func(r *fault.Record) {
				log.Warn().Str("script", r.Source).Int("line", r.Line).Int("column", r.Column).Msg(r.Message)
			},
		})
		if err != nil {
			return err
		}

		host := x_host.New(iso, nil)
		hostErr := make(chan error, 1)
		go func() { hostErr <- host.Run(ctx) }()

		bridge := x_bus.New(nc, host, cfg.NATS, nil)
		if !noBuiltins {
			r := cmd_run.NewBuiltins(args)
			if err := bridge.Serve(cfg.NATS.OutSubject, r.Transport(ctx)); err != nil {
				return err
			}
		}
		if err := bridge.Start(ctx); err != nil {
			return err
		}
		defer bridge.Stop()

		if len(args) == 1 {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := host.Execute(ctx, args[0], string(src)); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
		}

		// HTTP blocks until the signal context ends.
		api := &x_api.API{
			Host:    host,
			Store:   store,
			MaxBody: int64(cfg.MaxMessageSize),
			Stats:   func() any { return bridge.Stats() },
			Log:     x_log.New("x_api"),
		}
		apiErr := x_api.Serve(ctx, cfg.HTTP.Addr, x_api.NewRouter(api))
		cancel()
		<-host.Done()
		if err := <-hostErr; err != nil {
			return err
		}
		return apiErr
	},
}

func init() {
	Cmd.Flags().StringVarP(&snapshotName, "snapshot", "s", "", "restore this stored image first")
	Cmd.Flags().BoolVar(&noBuiltins, "no-builtins", false, "do not answer start/codeFetch on the outbound subject")
}
