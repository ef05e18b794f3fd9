package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWebhookCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}
	cmd.AddCommand(newWebhookSetCmd(opts))
	cmd.AddCommand(newWebhookDeleteCmd(opts))
	cmd.AddCommand(newWebhookInfoCmd(opts))
	return cmd
}

func newWebhookSetCmd(opts *globalOptions) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Point Telegram at the bot's webhook URL",
		Long:  "Registers --url (default chatbot.webhook_url) with chatbot.secret_token as the secret header.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			url = strings.TrimSpace(url)
			if url == "" {
				url = cfg.Chatbot.WebhookURL
			}
			if url == "" {
				return fmt.Errorf("--url is required when chatbot.webhook_url is not set")
			}

			telegram, err := newTelegramProvider(cfg, log, opts)
			if err != nil {
				return err
			}
			if err := telegram.SetWebhook(url, cfg.Chatbot.SecretToken); err != nil {
				return fmt.Errorf("set webhook: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Public HTTPS URL of the webhook route")
	return cmd
}

func newWebhookDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			telegram, err := newTelegramProvider(cfg, log, opts)
			if err != nil {
				return err
			}
			if err := telegram.DeleteWebhook(); err != nil {
				return fmt.Errorf("delete webhook: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted.")
			return nil
		},
	}
}

func newWebhookInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the bot account the configured token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			telegram, err := newTelegramProvider(cfg, log, opts)
			if err != nil {
				return err
			}
			me, err := telegram.GetMe()
			if err != nil {
				return fmt.Errorf("get bot info: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bot @%s (id %d)\n", me.UserName, me.ID)
			return nil
		},
	}
}
