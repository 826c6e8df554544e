package caffinity

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	entryBeverage    string
	entryName        string
	entryCaffeine    int
	entryServings    float64
	entryServingSize string
	entryAt          string
	entryNotes       string
	entryListDate    string
	entryListJSON    bool
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Log, list, and delete caffeine entries",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a drink from the catalog or a custom drink",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(entryBeverage) == "" && strings.TrimSpace(entryName) == "" {
			return fmt.Errorf("set --beverage <catalog id> or --name with --caffeine")
		}
		if strings.TrimSpace(entryBeverage) == "" && !cmd.Flags().Changed("caffeine") {
			return fmt.Errorf("--caffeine is required for a custom drink")
		}
		if cmd.Flags().Changed("servings") && entryServings <= 0 {
			return fmt.Errorf("--servings must be > 0")
		}
		consumed := nowFunc()
		if strings.TrimSpace(entryAt) != "" {
			t, err := service.ParseTimestamp(entryAt)
			if err != nil {
				return fmt.Errorf("invalid --at %q (expected YYYY-MM-DD, YYYY-MM-DD HH:MM, or RFC3339): %w", entryAt, err)
			}
			consumed = t
		}
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			e, err := env.entries.Log(env.ctx, service.LogDrinkInput{
				OwnerID:     owner,
				BeverageID:  entryBeverage,
				Name:        entryName,
				CaffeineMg:  entryCaffeine,
				ServingSize: entryServingSize,
				Servings:    entryServings,
				Consumed:    consumed,
				Notes:       entryNotes,
			})
			if err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%dmg) at %s [%s]\n", e.BeverageName, e.CaffeineAmount, e.Timestamp.Local().Format("2006-01-02 15:04"), e.ID)
			return nil
		})
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries for a day, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayFlag(entryListDate)
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
			entries := service.EntriesForDay(all, day)
			if entryListJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No entries on %s\n", service.DisplayDay(day, service.Today(nowFunc())))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTIME\tDRINK\tSERVING\tCAFFEINE")
			total := 0
			for _, e := range entries {
				total += e.CaffeineAmount
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%dmg\n", e.ID, e.Timestamp.Local().Format("15:04"), e.BeverageName, e.ServingSize, e.CaffeineAmount)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %dmg\n", total)
			return nil
		})
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			owner, err := env.userID()
			if err != nil {
				return err
			}
			if err := env.entries.Delete(env.ctx, owner, args[0]); err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", strings.TrimSpace(args[0]))
			return nil
		})
	},
}

var nowFunc = time.Now

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryListCmd, entryDeleteCmd)

	entryAddCmd.Flags().StringVar(&entryBeverage, "beverage", "", "Catalog beverage id (see `beverage list`)")
	entryAddCmd.Flags().StringVar(&entryName, "name", "", "Custom drink name")
	entryAddCmd.Flags().IntVar(&entryCaffeine, "caffeine", 0, "Caffeine in mg per serving for a custom drink")
	entryAddCmd.Flags().Float64Var(&entryServings, "servings", 1, "Number of servings")
	entryAddCmd.Flags().StringVar(&entryServingSize, "serving-size", "", "Serving size label, e.g. \"12 oz\"")
	entryAddCmd.Flags().StringVar(&entryAt, "at", "", "When it was consumed (default now)")
	entryAddCmd.Flags().StringVar(&entryNotes, "notes", "", "Optional notes")

	entryListCmd.Flags().StringVar(&entryListDate, "date", "", "Date YYYY-MM-DD (default today)")
	entryListCmd.Flags().BoolVar(&entryListJSON, "json", false, "Output JSON")
}
