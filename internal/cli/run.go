package cli

import (
	"fmt"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runCategoriesFlag []string
	runProfileFlag    string
	runAllFlag        bool
)

var runCmd = &cobra.Command{
	Use:   "run [check ids...]",
	Short: "Run an audit",
	Long: `Runs checks against the site facts snapshot, records the issues of
failing checks and prints the scored report.

Without arguments every enabled check runs. Use --category or --profile to
narrow the selection and --all to include disabled checks.`,
	RunE: runAudit,
}

func init() {
	runCmd.Flags().StringSliceVar(&runCategoriesFlag, "category", nil, "only run checks of these categories")
	runCmd.Flags().StringVarP(&runProfileFlag, "profile", "p", "", "run a named check profile from the config file")
	runCmd.Flags().BoolVar(&runAllFlag, "all", false, "include disabled checks")
	rootCmd.AddCommand(runCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	sel := audit.Selection{IDs: args, Categories: runCategoriesFlag, All: runAllFlag}
	if runProfileFlag != "" {
		if len(args) > 0 {
			return fmt.Errorf("--profile cannot be combined with check ids")
		}
		profile := appConfig.GetProfile(runProfileFlag)
		if profile == nil {
			return fmt.Errorf("unknown profile %q", runProfileFlag)
		}
		sel.IDs = profile.Checks
		sel.Categories = append(sel.Categories, profile.Categories...)
	}

	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	ids, err := e.runner.Select(ctx, sel)
	if err != nil {
		return err
	}

	opts := audit.Options{
		Concurrency: appConfig.Concurrency,
		Config:      make(map[string]map[string]any, len(ids)),
	}
	for _, id := range ids {
		opts.Config[id] = appConfig.CheckConfig(id)
	}
	if verboseFlag {
		errOut := cmd.ErrOrStderr()
		opts.Progress = func(done, total int, res types.CheckResult) {
			fmt.Fprintf(errOut, "[%d/%d] %s %s\n", done, total, res.CheckID, color.CyanString(string(res.Status)))
		}
	}

	report, runErr := e.runner.Run(ctx, ids, opts)
	if runErr != nil {
		appLogger.Error("audit finished with errors", zap.Error(runErr))
	}
	if err := e.render(ctx, cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return runErr
}
