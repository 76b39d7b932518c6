package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"missive/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}

	testCmd := &cobra.Command{
		Use:   "test <recipient>",
		Short: "Send a test mail to verify SMTP settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient := strings.TrimSpace(args[0])
			if recipient == "" {
				return errors.New("recipient address is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.SMTP.Host == "" {
				return errors.New("smtp.host is not configured; set the [smtp] section first")
			}

			svc := notify.NewService(cfg)
			if err := svc.Test(cmd.Context(), recipient); err != nil {
				return fmt.Errorf("send test mail: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test mail sent to %s\n", recipient)
			return nil
		},
	}

	notifyCmd.AddCommand(testCmd)
	return notifyCmd
}
