package cmd

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgmetrics/channel-metrics-service/internal/application"
	"github.com/tgmetrics/channel-metrics-service/internal/config"
	"github.com/tgmetrics/channel-metrics-service/internal/database"
	"github.com/tgmetrics/channel-metrics-service/internal/scraper"
	"github.com/tgmetrics/channel-metrics-service/internal/service"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

var scrapeLimit int

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all active channels once and exit",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "messages per channel (0 = configured default)")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTelegram(); err != nil {
		return err
	}

	log, err := application.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	client, err := telegram.NewClient(cfg.Telegram, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := client.Start(ctx); err != nil {
			log.Error("telegram client", zap.Error(err))
		}
	}()
	defer client.Close() //nolint:errcheck

	orchestrator := scraper.NewOrchestrator(
		service.NewChannelService(db),
		service.NewMessageService(db, log),
		client, nil, log, cfg.Scraper.MessageLimit)

	summary, err := orchestrator.Run(ctx, nil, scrapeLimit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
