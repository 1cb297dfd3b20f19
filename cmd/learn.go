package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/app"
	"github.com/adaptlearn/termtutor/internal/content"
	"github.com/adaptlearn/termtutor/internal/session"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start or resume a learning session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(cmd)
	},
}

func init() {
	learnCmd.Flags().String("topic", "", "Seed the session with a topic")
	learnCmd.Flags().String("difficulty", "", "Pin difficulty (easy, normal, hard, challenge)")
	learnCmd.Flags().String("format", "", "Pin content format (text, visual, video, interactive)")
}

// runLearn builds the dependency graph and launches the TUI.
func runLearn(cmd *cobra.Command) error {
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

	opts := session.Options{}
	// The learn subcommand carries the knobs; the bare root command runs
	// with engine defaults.
	if cmd.Flags().Lookup("topic") != nil {
		opts.Topic, _ = cmd.Flags().GetString("topic")
		opts.OverrideDifficulty, _ = cmd.Flags().GetString("difficulty")
		opts.OverrideFormat, _ = cmd.Flags().GetString("format")
	}
	if v := os.Getenv("TERMTUTOR_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			opts.PollInterval = d
		}
	}

	orch := session.New(store, client, content.NewLoader(client), opts)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return app.Run(ctx, orch)
}
