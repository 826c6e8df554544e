package caffinity

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the caffinity database and active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			id, created, err := env.ensureActiveUser()
			if err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized caffinity database at %s\n", env.location)
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Active user %s\n", id)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
