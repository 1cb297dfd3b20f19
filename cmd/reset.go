package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored session (and learner with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openIdentity(cmd)
		defer store.Close()

		if err := store.ClearSession(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		if resetAll {
			if err := store.ClearUser(); err != nil {
				return fmt.Errorf("clear learner: %w", err)
			}
			fmt.Println("Cleared the stored session and learner identity.")
			return nil
		}
		fmt.Println("Cleared the stored session. The learner identity is kept.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Also forget the learner identity (a new one is created next run)")
}
