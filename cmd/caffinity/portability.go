package caffinity

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	exportFormat string
	exportOut    string
	importFormat string
	importIn     string
	importMode   string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your entries (json or csv)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exportOut) == "" {
			return fmt.Errorf("--out is required")
		}
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			switch strings.ToLower(strings.TrimSpace(exportFormat)) {
			case "json":
				prefs, err := service.GetPreferences(env.ctx, env.db, owner)
				if err != nil {
					return withRetryHint(err)
				}
				data, err := service.ExportSnapshot(env.ctx, env.repo, owner, &prefs)
				if err != nil {
					return withRetryHint(err)
				}
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal export json: %w", err)
				}
				if err := os.WriteFile(exportOut, b, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
			case "csv":
				entries, err := env.snapshot(owner)
				if err != nil {
					return err
				}
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("create export csv: %w", err)
				}
				defer f.Close()
				if err := service.WriteEntriesCSV(f, entries); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --format %q (use json or csv)", exportFormat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported entries to %s\n", exportOut)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import entries (json or csv) for the active user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return fmt.Errorf("--in is required")
		}
		var entries []model.CaffeineEntry
		switch strings.ToLower(strings.TrimSpace(importFormat)) {
		case "json":
			raw, err := os.ReadFile(importIn)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var payload service.ExportData
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse import json: %w", err)
			}
			entries = payload.Entries
		case "csv":
			f, err := os.Open(importIn)
			if err != nil {
				return fmt.Errorf("open import csv: %w", err)
			}
			defer f.Close()
			entries, err = service.ReadEntriesCSV(f)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported --format %q (use json or csv)", importFormat)
		}

		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			report, err := service.ImportEntries(env.ctx, env.repo, owner, entries, service.ImportOptions{
				Mode:   service.ImportMode(strings.ToLower(strings.TrimSpace(importMode))),
				DryRun: importDryRun,
			})
			if err != nil {
				return withRetryHint(err)
			}
			if report.Inserted > 0 && !importDryRun {
				env.entries.Notifier().NotifyChanged()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Import report: inserted=%d skipped=%d conflicts=%d\n", report.Inserted, report.Skipped, report.Conflicts)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			if importDryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Dry-run import validated %s\n", importIn)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	importCmd.Flags().StringVar(&importFormat, "format", "json", "Import format: json or csv")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input file path")
	importCmd.Flags().StringVar(&importMode, "mode", "skip", "What to do with entries that already exist: skip or fail")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing data")
}
