package commands

import (
	"context"
	"fmt"

	"calmnest-api/internal/chatbot"
	"calmnest-api/internal/checkin"
	"calmnest-api/internal/common"
	"calmnest-api/internal/scheduler"
	"calmnest-api/internal/user"

	"github.com/spf13/cobra"
)

func newDispatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Run one check-in pass now",
		Long:  "Sends the current slot's check-in to every subscriber not yet checked in for it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			location, err := env.cfg.Checkin.Location()
			if err != nil {
				return err
			}

			telegram, err := newTelegramProvider(env.cfg, env.logger, opts)
			if err != nil {
				return fmt.Errorf("create telegram provider: %w", err)
			}

			clock := common.NewRealClock()
			dispatcher, err := checkin.NewDispatcher(
				user.NewGormDirectory(env.db, clock, env.logger),
				chatbot.NewNotifier(telegram),
				clock,
				checkin.Config{
					Location:  location,
					Workers:   env.cfg.Scheduler.WorkerCount,
					Templates: checkin.TemplatesFromConfig(env.cfg.Checkin.Messages),
				},
				env.logger,
			)
			if err != nil {
				return err
			}

			runner, err := scheduler.NewScheduler(env.cfg.Scheduler, dispatcher, env.logger)
			if err != nil {
				return err
			}

			report, err := runner.RunOnce(context.Background())
			if err != nil {
				return fmt.Errorf("dispatch: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Slot:        %s\n", report.Slot)
			fmt.Fprintf(out, "Subscribers: %d\n", report.Subscribers)
			fmt.Fprintf(out, "Sent:        %d\n", report.Sent)
			fmt.Fprintf(out, "Skipped:     %d\n", report.Skipped)
			fmt.Fprintf(out, "Failed:      %d\n", report.Failed+report.RecordFailures)
			return nil
		},
	}
}
