package caffinity

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/saadjs/caffinity-cli/internal/model"
	"github.com/saadjs/caffinity-cli/internal/service"
)

var (
	insightsDate     string
	insightsProvider string
	insightsCopy     bool
	insightsJSON     bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Get a summary, recommendations, and concerns for a day's intake",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayFlag(insightsDate)
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

			provider := strings.TrimSpace(insightsProvider)
			if provider == "" {
				saved, _, err := service.GetConfig(env.ctx, env.db, service.ConfigAdvisoryProvider)
				if err != nil {
					return withRetryHint(err)
				}
				provider = saved
			}
			remote, err := service.BuildRemoteStrategy(service.AdvisoryOptions{
				Provider:          provider,
				GeminiAPIKey:      env.cfg.GeminiAPIKey,
				GeminiModel:       env.cfg.GeminiModel,
				GeminiBaseURL:     env.cfg.GeminiBaseURL,
				AnalysisURL:       env.cfg.AnalysisURL,
				AnalysisKey:       env.cfg.AnalysisKey,
				Timeout:           env.cfg.AdvisoryTimeout,
				RequestsPerMinute: env.cfg.AdvisoryRPM,
				Logger:            env.logger,
			})
			if err != nil {
				return err
			}

			engine := service.NewAdvisoryEngine(remote, env.logger, env.metrics)
			ticket := engine.Begin()
			adv := engine.Advise(env.ctx, service.AdvisoryRequest{
				UserID:           owner,
				DailyTotal:       service.TotalForDay(all, day),
				RecommendedLimit: service.RecommendedLimit(),
				Timeframe:        "day",
			})
			// One engine per invocation, so this only trips for callers that
			// keep an engine and re-advise when entries change.
			if !ticket.Current() {
				return nil
			}

			if insightsJSON {
				if err := writeJSON(cmd.OutOrStdout(), adv); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderAdvisory(adv))
			}
			if insightsCopy {
				if err := clipboard.WriteAll(renderAdvisory(adv)); err != nil {
					return fmt.Errorf("copy insights to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied insights to clipboard")
			}
			return nil
		})
	},
}

func renderAdvisory(adv model.Advisory) string {
	var sb strings.Builder
	sb.WriteString(adv.Summary)
	sb.WriteString("\n")
	if len(adv.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, r := range adv.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	if len(adv.Concerns) > 0 {
		sb.WriteString("\nConcerns:\n")
		for _, c := range adv.Concerns {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVar(&insightsDate, "date", "", "Date YYYY-MM-DD (default today)")
	insightsCmd.Flags().StringVar(&insightsProvider, "provider", "", "Advisory provider: auto, rules, gemini, analysis (default from config)")
	insightsCmd.Flags().BoolVar(&insightsCopy, "copy", false, "Copy the insights to the clipboard")
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "Output JSON")
}
