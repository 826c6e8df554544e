package caffinity

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	beverageCategory string
	beverageUnit     string
	beverageJSON     bool
)

var beverageCmd = &cobra.Command{
	Use:     "beverage",
	Aliases: []string{"drinks"},
	Short:   "Browse the beverage catalog",
}

var beverageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog drinks with caffeine per serving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			unit, err := resolveUnit(env, beverageUnit)
			if err != nil {
				return err
			}
			items, err := env.beverages.List(env.ctx, beverageCategory)
			if err != nil {
				return withRetryHint(err)
			}
			if beverageJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tCATEGORY\tCAFFEINE\tSERVING")
			for _, b := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%dmg\t%s\n", b.ID, b.Name, b.Category, b.CaffeineMg, service.FormatServingSize(b, unit))
			}
			return nil
		})
	},
}

// resolveUnit prefers an explicit --unit, then the user's saved preference.
// Without a resolvable user it falls back to ounces.
func resolveUnit(env *cliEnv, flagValue string) (model.UnitPreference, error) {
	if strings.TrimSpace(flagValue) != "" {
		return service.ParseUnitPreference(flagValue)
	}
	owner, err := env.userID()
	if err != nil {
		return model.UnitOz, nil
	}
	prefs, err := service.GetPreferences(env.ctx, env.db, owner)
	if err != nil {
		return "", withRetryHint(err)
	}
	return prefs.UnitPreference, nil
}

func init() {
	rootCmd.AddCommand(beverageCmd)
	beverageCmd.AddCommand(beverageListCmd)
	beverageListCmd.Flags().StringVar(&beverageCategory, "category", "", "Filter by category: coffee, tea, energy, soda, other")
	beverageListCmd.Flags().StringVar(&beverageUnit, "unit", "", "Serving unit: oz, ml, cup (default from prefs)")
	beverageListCmd.Flags().BoolVar(&beverageJSON, "json", false, "Output JSON")
}
