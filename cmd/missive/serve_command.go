package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"missive/internal/cycle"
	"missive/internal/logging"
	"missive/internal/notify"
	"missive/internal/server"
	"missive/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the newsletter web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				logger.Error("open store", "error", err)
				return err
			}
			defer st.Close()

			svc := cycle.NewService(cfg, st, notify.NewService(cfg), logger)
			srv := server.New(cfg, svc, logger)

			logger.Info("missive serving", "bind", cfg.Paths.Bind)
			return srv.ListenAndServe(signalCtx)
		},
	}
}
