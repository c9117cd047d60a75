package cli

import (
	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/tui"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive TUI mode",
	Long:  "Start an interactive terminal UI for selecting checks, running an audit and browsing the results.",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	return tui.Run(e.runner, e.tracker, audit.Options{
		Concurrency: appConfig.Concurrency,
		Config:      appConfig.Checks,
	})
}
