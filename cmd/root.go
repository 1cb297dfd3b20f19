package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/identity"
)

var rootCmd = &cobra.Command{
	Use:   "termtutor",
	Short: "Adaptive learning sessions in the terminal",
	Long:  "TermTutor — terminal client for an adaptive learning platform: personalized content, graded answers, and a persistent tutoring dialog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the local identity database (overrides TERMTUTOR_DB env var)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides TERMTUTOR_API_URL env var)")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// apiConfig builds the backend config from env, with the --api-url flag
// taking precedence.
func apiConfig(cmd *cobra.Command) (api.Config, error) {
	cfg := api.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.BaseURL = u
	}
	return cfg, cfg.Validate()
}

// resolveDBPath returns the identity database path using --db flag
// (highest priority), then TERMTUTOR_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, identity.EnsureDir(p)
	}
	return identity.DefaultDBPath()
}

// openIdentity opens the local identity store, degrading to a no-op
// store when it is unavailable. Sessions then simply cannot be restored
// across restarts.
func openIdentity(cmd *cobra.Command) *identity.Store {
	path, err := resolveDBPath(cmd)
	if err == nil {
		st, openErr := identity.Open(path)
		if openErr == nil {
			return st
		}
		err = openErr
	}
	fmt.Fprintln(os.Stderr, "Local identity store unavailable:", err)
	fmt.Fprintln(os.Stderr, "Sessions will not be restored across restarts.")
	return identity.Noop()
}
