package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eurotax/satoshi-bot/internal/config"
	"github.com/eurotax/satoshi-bot/internal/dexscreener"
	"github.com/eurotax/satoshi-bot/internal/signals"
)

// scanCmd runs one pipeline pass and prints the digest to stdout. Useful
// for tuning filter thresholds without touching a channel.
func scanCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		limit int
		vip   bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one signal scan and print the digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			pipeline, err := buildPipeline(cfg, nil)
			if err != nil {
				return err
			}
			defer dexscreener.Release()

			pairs, err := pipeline.TopSignals(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Println(signals.FormatDigest(pairs, vip))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "max signals to print")
	cmd.Flags().BoolVar(&vip, "vip", false, "render with the VIP header")
	return cmd
}
