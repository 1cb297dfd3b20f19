package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/content"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past recommendations for the local learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := apiConfig(cmd)
		if err != nil {
			return fmt.Errorf("backend config: %w", err)
		}
		client, err := api.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("backend client: %w", err)
		}

		store := openIdentity(cmd)
		defer store.Close()

		userID := store.Identity().UserID
		loader := content.NewLoader(client)
		history, err := loader.History(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("recommendation history: %w", err)
		}

		if len(history.Recommendations) == 0 {
			fmt.Println("No recommendations yet. Run a session first.")
			return nil
		}

		for _, rec := range history.Recommendations {
			fmt.Printf("%s  %-30s  %s  (%.0f%% via %s)\n",
				rec.Timestamp.Format("2006-01-02 15:04"),
				rec.Content.Title,
				rec.Content.Topic,
				rec.Confidence*100,
				rec.StrategyUsed,
			)
		}
		fmt.Printf("\n%d recommendations total\n", history.Total)
		return nil
	},
}
