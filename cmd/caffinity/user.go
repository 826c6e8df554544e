package caffinity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show or switch the user entries are recorded for",
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			id, err := env.userID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var userUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make an existing user id the active user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if id == "" {
			return fmt.Errorf("user id is required")
		}
		return withEnv(cmd, func(env *cliEnv) error {
			if err := service.SetConfig(env.ctx, env.db, service.ConfigActiveUser, id); err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active user %s\n", id)
			return nil
		})
	},
}

var userNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new user id and make it active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *cliEnv) error {
			id := uuid.NewString()
			if err := service.SetConfig(env.ctx, env.db, service.ConfigActiveUser, id); err != nil {
				return withRetryHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userShowCmd, userUseCmd, userNewCmd)
}
