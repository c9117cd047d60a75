package cli

import (
	"fmt"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Override per-check settings",
	Long:  "Enable or disable checks and override their severity. Overrides are stored in the database.",
}

func init() {
	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "enable <check id>",
			Short: "Enable a check",
			Args:  cobra.ExactArgs(1),
			RunE:  withCheck(func(cmd *cobra.Command, e *env, id string) error { return check.SetEnabled(cmd.Context(), e.store, id, true) }),
		},
		&cobra.Command{
			Use:   "disable <check id>",
			Short: "Disable a check; it is reported as ignored",
			Args:  cobra.ExactArgs(1),
			RunE:  withCheck(func(cmd *cobra.Command, e *env, id string) error { return check.SetEnabled(cmd.Context(), e.store, id, false) }),
		},
		&cobra.Command{
			Use:   "severity <check id> <low|high|critical>",
			Short: "Override the severity of a check",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				sev, err := types.ParseSeverity(args[1])
				if err != nil {
					return err
				}
				return withCheck(func(cmd *cobra.Command, e *env, id string) error {
					return check.SetSeverity(cmd.Context(), e.store, id, sev)
				})(cmd, args[:1])
			},
		},
		&cobra.Command{
			Use:   "reset <check id>",
			Short: "Drop all overrides of a check",
			Args:  cobra.ExactArgs(1),
			RunE:  withCheck(func(cmd *cobra.Command, e *env, id string) error { return e.store.DeleteSettings(cmd.Context(), id) }),
		},
	)
	rootCmd.AddCommand(settingsCmd)
}

// withCheck opens the environment, validates the check id and prints the
// effective definition after fn succeeds.
func withCheck(fn func(cmd *cobra.Command, e *env, id string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(false)
		if err != nil {
			return err
		}
		defer e.Close()

		entry, err := e.lookup(args[0])
		if err != nil {
			return err
		}
		if err := fn(cmd, e, args[0]); err != nil {
			return err
		}

		def, err := check.Resolve(cmd.Context(), e.store, entry.Definition)
		if err != nil {
			return err
		}
		state := "enabled"
		if !def.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, severity %s\n", def.ID, state, def.Severity)
		return nil
	}
}
