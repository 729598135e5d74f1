package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eurotax/satoshi-bot/internal/config"
	"github.com/eurotax/satoshi-bot/internal/telegram"
	"github.com/eurotax/satoshi-bot/internal/webhook"
)

// webhookCmd serves only the HTTP surface, for deployments that keep the
// digest bot and the TradingView relay on separate processes.
func webhookCmd(ctx context.Context, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "webhook",
		Short: "Serve only the TradingView webhook relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			bot, err := telegram.New(cfg.Telegram)
			if err != nil {
				return err
			}

			srv := webhook.NewServer(cfg.Webhook, bot)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info().Msg("webhook server stopped")
			return nil
		},
	}
}
