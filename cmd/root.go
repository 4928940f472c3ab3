// file: jsbridge/cmd/root.go
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rskv-p/jsbridge/cmd/cmd_config"
	"github.com/rskv-p/jsbridge/cmd/cmd_run"
	"github.com/rskv-p/jsbridge/cmd/cmd_serve"
	"github.com/rskv-p/jsbridge/cmd/cmd_snapshot"
	"github.com/rskv-p/jsbridge/config"
	"github.com/rskv-p/jsbridge/constant"
	"github.com/rskv-p/jsbridge/pkg/x_log"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           constant.AppName,
	Short:         "Script host with a byte-buffer message bridge",
	Version:       constant.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		x_log.InitWithConfig(&cfg.Log, constant.AppName)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		x_log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+constant.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level")

	rootCmd.AddCommand(cmd_run.Cmd)
	rootCmd.AddCommand(cmd_snapshot.Cmd)
	rootCmd.AddCommand(cmd_serve.Cmd)
	rootCmd.AddCommand(cmd_config.Cmd)
}
