package main

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	var configPath string

	root := &cobra.Command{
		Use:   "satoshi-bot",
		Short: "DEX signal scanner and Telegram alert bot",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")

	root.AddCommand(runCmd(ctx, &configPath))
	root.AddCommand(scanCmd(ctx, &configPath))
	root.AddCommand(webhookCmd(ctx, &configPath))
	return root.ExecuteContext(ctx)
}
