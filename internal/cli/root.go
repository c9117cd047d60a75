package cli

import (
	"fmt"
	"time"

	"github.com/buemura/advaudit/internal/config"
	"github.com/buemura/advaudit/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	configFlag      string
	siteFlag        string
	dbFlag          string
	outputFlag      string
	verboseFlag     bool
	concurrencyFlag int
	timeoutFlag     time.Duration
	logLevelFlag    string
)

// appConfig and appLogger are available after PersistentPreRunE.
var (
	appConfig *config.Config
	appLogger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "advaudit",
	Short: "advaudit - site audit engine",
	Long: `advaudit runs a catalog of checks against a site facts snapshot,
scores the results and keeps track of the issues each failing check
reports across audits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg *config.Config
			err error
		)
		if configFlag != "" {
			cfg, err = config.LoadFromFile(configFlag)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		config.ApplyFlags(cfg, cmd)
		if verboseFlag {
			cfg.LogLevel = "debug"
		}

		logger, err := logging.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		appConfig = cfg
		appLogger = logger
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLogger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", "", "config file (default ~/.advaudit.yaml)")
	flags.StringVarP(&siteFlag, "site", "s", "site.yaml", "site facts snapshot (YAML)")
	flags.StringVar(&dbFlag, "db", config.DefaultDatabasePath(), "issue and report database")
	flags.StringVarP(&outputFlag, "output", "o", "table", "output format: table, json, markdown, html")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output (debug logging)")
	flags.IntVarP(&concurrencyFlag, "concurrency", "c", 1, "max checks running at once")
	flags.DurationVar(&timeoutFlag, "timeout", 10*time.Second, "per-check timeout")
	flags.StringVar(&logLevelFlag, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
}
