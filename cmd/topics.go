package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/content"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the topics available on the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := apiConfig(cmd)
		if err != nil {
			return fmt.Errorf("backend config: %w", err)
		}
		client, err := api.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("backend client: %w", err)
		}

		loader := content.NewLoader(client)
		topics, err := loader.Topics(cmd.Context())
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}

		if len(topics) == 0 {
			fmt.Println("No topics available.")
			return nil
		}
		for _, t := range topics {
			fmt.Println(t)
		}
		return nil
	},
}
