package caffinity

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change your display preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			prefs, err := service.GetPreferences(env.ctx, env.db, owner)
			if err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unit: %s\n", prefs.UnitPreference)
			return nil
		})
	},
}

var prefsSetUnitCmd = &cobra.Command{
	Use:   "set-unit <oz|ml|cup>",
	Short: "Set the unit serving sizes are shown in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := service.ParseUnitPreference(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			if err := service.SetUnitPreference(env.ctx, env.db, owner, unit); err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unit set to %s\n", unit)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd, prefsSetUnitCmd)
}
