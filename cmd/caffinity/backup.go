package caffinity

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/app"
	"github.com/saadjs/caffinity-cli/internal/config"
	"github.com/saadjs/caffinity-cli/internal/db"
	"github.com/saadjs/caffinity-cli/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage SQLite database backups",
}

var (
	backupOut    string
	backupDir    string
	restoreFile  string
	restoreForce bool
)

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the database into a backup file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			if env.db.Driver != db.DriverSQLite {
				return fmt.Errorf("backup is only supported for sqlite; use your Postgres tooling instead")
			}
			out := strings.TrimSpace(backupOut)
			if out == "" {
				out = filepath.Join(backupDirFor(env.location), fmt.Sprintf("caffinity-%s.db", time.Now().Format("20060102-150405")))
			}
			info, err := service.CreateBackup(env.ctx, env.db, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created backup: %s\n", info.Path)
			fmt.Fprintf(cmd.OutOrStdout(), "Checksum: %s\n", info.Checksum)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		location, err := sqliteLocation()
		if err != nil {
			return err
		}
		items, err := service.ListBackups(backupDirFor(location))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "FILE\tSIZE\tCREATED\tCHECKSUM")
		for _, it := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", it.Path, it.SizeBytes, it.CreatedAt.Format(time.RFC3339), it.Checksum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the database from a backup file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(restoreFile) == "" {
			return fmt.Errorf("--file is required")
		}
		location, err := sqliteLocation()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(restoreFile, location, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored backup from %s\n", restoreFile)
		return nil
	},
}

// sqliteLocation resolves the database file without opening it, so restore
// never races an open handle.
func sqliteLocation() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	driver := strings.ToLower(strings.TrimSpace(dbDriver))
	if driver == "" {
		driver = cfg.DBDriver
	}
	if driver != db.DriverSQLite {
		return "", fmt.Errorf("backups are only supported for sqlite")
	}
	return app.ResolveDataSource(driver, dbPath, cfg.DatabaseURL)
}

func backupDirFor(location string) string {
	if strings.TrimSpace(backupDir) != "" {
		return backupDir
	}
	return filepath.Join(filepath.Dir(location), "backups")
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "Backup directory (default: alongside the DB under backups/)")
	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Backup output file path")
	backupRestoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup .db file path")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite the existing DB if present")
}
