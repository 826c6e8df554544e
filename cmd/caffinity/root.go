package caffinity

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath      string
	dbDriver    string
	userFlag    string
	logLevel    string
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:           "caffinity",
	Short:         "caffinity tracks your caffeine intake from the terminal",
	Long:          "caffinity is a local-first caffeine tracker with a drink catalog, daily totals, history, and intake insights.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path or Postgres DSN")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: sqlite or postgres (default from CAFFINITY_DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id to act as (overrides the active user)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics for this run to a textfile")
}
