package caffinity

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			report, err := service.RunDoctor(env.ctx, env.db, doctorFix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries with unknown beverages: %d\n", report.OrphanEntries)
			fmt.Fprintf(cmd.OutOrStdout(), "Entries with unreadable timestamps: %d\n", report.InvalidTimestamps)
			if doctorFix {
				fmt.Fprintf(cmd.OutOrStdout(), "Relabelled as custom drinks: %d\n", report.FixedOrphans)
				report, err = service.RunDoctor(env.ctx, env.db, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
