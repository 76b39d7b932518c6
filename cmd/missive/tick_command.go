package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"missive/internal/config"
	"missive/internal/cycle"
	"missive/internal/logging"
	"missive/internal/notify"
	"missive/internal/store"
)

func newTickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Advance newsletter cycles and send due notifications",
		Long: "Tick inspects every registered newsletter, advances the issue counter " +
			"when a new cycle begins, and sends the phase mails that are due today. " +
			"Run it once a day from cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				svc := cycle.NewService(cfg, st, notify.NewService(cfg), logger)
				if err := svc.Tick(cmd.Context()); err != nil {
					return fmt.Errorf("tick: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tick complete")
				return nil
			})
		},
	}
}
