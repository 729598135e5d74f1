package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eurotax/satoshi-bot/internal/alerts"
	"github.com/eurotax/satoshi-bot/internal/bybit"
	"github.com/eurotax/satoshi-bot/internal/config"
	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/jobs"
	"github.com/eurotax/satoshi-bot/internal/telegram"
	"github.com/eurotax/satoshi-bot/internal/telemetry"
	"github.com/eurotax/satoshi-bot/internal/webhook"
)

// runCmd is the long-running bot: digest jobs for both channels, the
// Bybit pump/dump monitor, and the webhook HTTP server.
func runCmd(ctx context.Context, configPath *string) *cobra.Command {
	var withWebhook bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot with scheduled channel digests",
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

			metrics := telemetry.New(nil)
			pipeline, err := buildPipeline(cfg, metrics)
			if err != nil {
				return err
			}
			defer dexscreener.Release()

			seen := alerts.NewSeenStore(ctx, cfg.RedisAddr)
			publisher := alerts.NewPublisher(pipeline, bot, seen, metrics)

			scheduler := jobs.NewScheduler()
			registry := jobs.NewRegistry(cfg.Registry)

			channels := alerts.DefaultChannels(cfg.VIPChannelID, cfg.PublicChannelID)
			if cfg.VIPInterval > 0 {
				channels[0].Interval = cfg.VIPInterval
			}
			if cfg.PublicInterval > 0 {
				channels[1].Interval = cfg.PublicInterval
			}
			if err := publisher.Schedule(registry, scheduler, channels); err != nil {
				return err
			}

			monitor := bybit.NewMonitor(bybit.NewClient(cfg.Bybit), bot, cfg.BybitMonitor, cfg.Retry)
			if err := monitor.Schedule(registry, scheduler); err != nil {
				return err
			}

			var srv *webhook.Server
			if withWebhook {
				srv = webhook.NewServer(cfg.Webhook, bot)
				go func() {
					if err := srv.ListenAndServe(); err != nil {
						log.Error().Err(err).Msg("webhook server stopped")
					}
				}()
			}

			log.Info().Int("jobs", registry.Stats().TotalJobs).Msg("bot running")
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if srv != nil {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("webhook shutdown")
				}
			}
			if err := scheduler.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("scheduler shutdown")
			}
			log.Info().Msg("bot stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withWebhook, "webhook", true, "serve the TradingView webhook endpoint")
	return cmd
}
