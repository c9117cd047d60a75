package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/buemura/advaudit/internal/config"
	"github.com/buemura/advaudit/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the advaudit web server",
	Long: `Launches the web interface and JSON API for running audits and triaging
issues from a browser. When a config file is given with --config, per-check
configuration is reloaded whenever the file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", ":8080", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	s := web.NewServer(appConfig.Listen, e.runner, e.tracker, e.store, appLogger)
	s.SetCheckConfig(appConfig.Checks)

	if configFlag != "" {
		if _, err := config.Watch(configFlag, func(cfg *config.Config, err error) {
			if err != nil {
				appLogger.Warn("config reload failed", zap.Error(err))
				return
			}
			s.SetCheckConfig(cfg.Checks)
			appLogger.Info("check config reloaded", zap.String("file", configFlag))
		}); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "advaudit web server listening on %s\n", appConfig.Listen)
	return s.Start(ctx)
}
