package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelpipe/internal/notifications"
)

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test Telegram message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			svc := notifications.NewService(cfg, logger)
			if !notifications.Enabled(svc) {
				return errors.New("telegram is not configured; set telegram.bot_token and telegram.chat_id")
			}
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
