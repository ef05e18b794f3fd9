package commands

import (
	"context"
	"fmt"

	"calmnest-api/internal/common"
	"calmnest-api/internal/conversation"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "Print a user's conversation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if last < 0 {
				return fmt.Errorf("--last must not be negative")
			}

			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			store := conversation.NewGormStore(env.db, common.NewRealClock(), env.logger)
			turns, err := conversation.NewAssembler(store, last).BuildContext(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(turns) == 0 {
				fmt.Fprintf(out, "No messages for user %d.\n", userID)
				return nil
			}
			for _, turn := range turns {
				fmt.Fprintf(out, "[%s] %s\n", turn.Role, turn.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 0, "Only print the most recent N messages (0 prints all)")
	return cmd
}
