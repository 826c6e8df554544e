package caffinity

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	historyDays  int
	historyToday string
	historyJSON  bool
)

type historyReport struct {
	Series  []service.HistoryPoint `json:"series"`
	MaxDay  *service.HistoryPoint  `json:"max_day"`
	Summary service.SeriesSummary  `json:"summary"`
	Limit   int                    `json:"limit_mg"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily totals over a trailing window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDays < 1 {
			return fmt.Errorf("--days must be >= 1")
		}
		today, err := parseDayFlag(historyToday)
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
			series, err := service.BuildSeries(all, historyDays, today)
			if err != nil {
				return err
			}
			best, err := service.MaxDay(all, historyDays, today)
			if err != nil {
				return err
			}
			report := historyReport{
				Series:  series,
				MaxDay:  best,
				Summary: service.SummarizeSeries(all, series, service.RecommendedLimit()),
				Limit:   service.RecommendedLimit(),
			}
			if historyJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			for _, p := range series {
				fmt.Fprintf(out, "%s  %4dmg  %s\n", p.Day, p.Total, bar(p.Total, report.Limit))
			}
			fmt.Fprintf(out, "Average: %.0fmg/day over %d days (%d over limit)\n", report.Summary.AveragePerDay, report.Summary.Days, report.Summary.DaysOverLimit)
			if best == nil {
				fmt.Fprintln(out, "No entries in this window")
			} else {
				fmt.Fprintf(out, "Highest: %s with %dmg\n", service.DisplayDay(best.Day, service.Today(nowFunc())), best.Total)
			}
			return nil
		})
	},
}

// bar draws total on a 20-column scale where the limit fills the bar.
func bar(total, limit int) string {
	const width = 20
	if limit <= 0 || total <= 0 {
		return ""
	}
	n := total * width / limit
	if n > width {
		return strings.Repeat("#", width) + "+"
	}
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyDays, "days", 7, "Window length in days (7, 14, 30, ...)")
	historyCmd.Flags().StringVar(&historyToday, "today", "", "Last day of the window YYYY-MM-DD (default today)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output JSON")
}
