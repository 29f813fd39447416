package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pokechat/pokechat-server/internal/app"
	"github.com/pokechat/pokechat-server/internal/config"
	"github.com/pokechat/pokechat-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:          "pokechat-server",
		Short:        "Real-time group chat server",
		Long:         "pokechat-server hosts a single group chat room: anonymous identities, live presence counts, message fan-out and recent-history replay over WebSocket.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(logLevel)

			cfg, cfgPath, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			logger.Info().Str("config_path", cfgPath).Msg("configuration loaded")

			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger = log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, &cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting pokechat server")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
