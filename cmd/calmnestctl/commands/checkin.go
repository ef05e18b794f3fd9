package commands

import (
	"context"
	"fmt"
	"strings"

	"calmnest-api/internal/common"
	"calmnest-api/internal/user"

	"github.com/spf13/cobra"
)

func newCheckinCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "checkin <user-id> [on|off]",
		Short:     "Show or change a user's check-in subscription",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			var enable *bool
			if len(args) == 2 {
				switch strings.ToLower(args[1]) {
				case "on":
					v := true
					enable = &v
				case "off":
					v := false
					enable = &v
				default:
					return fmt.Errorf("expected on or off, got %q", args[1])
				}
			}

			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := context.Background()
			directory := user.NewGormDirectory(env.db, common.NewRealClock(), env.logger)

			u, err := directory.Get(ctx, userID)
			if err != nil {
				if common.IsNotFound(err) {
					return fmt.Errorf("user %d has never messaged the bot", userID)
				}
				return err
			}

			if enable != nil {
				if err := directory.SetCheckinEnabled(ctx, userID, *enable); err != nil {
					return fmt.Errorf("update check-in flag: %w", err)
				}
				u.CheckinEnabled = *enable
			}

			state := "disabled"
			if u.CheckinEnabled {
				state = "enabled"
			}
			lastSlot := u.LastCheckinSlot
			if lastSlot == "" {
				lastSlot = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d: check-ins %s (last slot: %s)\n", userID, state, lastSlot)
			return nil
		},
	}
}
