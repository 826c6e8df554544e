package caffinity

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	todayDate string
	todayJSON bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the day's caffeine total against the recommended limit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayFlag(todayDate)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			all, err := env.snapshot(owner)
			if err != nil {
				return err
			}
			dash, err := service.BuildDashboard(all, day, service.Today(nowFunc()))
			if err != nil {
				return err
			}
			if todayJSON {
				return writeJSON(cmd.OutOrStdout(), dash)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", dash.Label, dash.Date)
			fmt.Fprintf(out, "Caffeine: %dmg / %dmg (%d%%, %s)\n", dash.Total, dash.Limit, dash.Percent, dash.Status)
			if dash.OverLimit {
				fmt.Fprintf(out, "Over the recommended limit by %dmg\n", dash.Total-dash.Limit)
			}
			if dash.EmptyMessage != "" {
				fmt.Fprintln(out, dash.EmptyMessage)
				return nil
			}
			for _, e := range dash.Entries {
				fmt.Fprintf(out, "  %s  %-20s %4dmg  %s\n", e.Timestamp.Local().Format("15:04"), e.BeverageName, e.CaffeineAmount, e.ServingSize)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output JSON")
}
