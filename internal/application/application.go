package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tgmetrics/channel-metrics-service/internal/config"
	"github.com/tgmetrics/channel-metrics-service/internal/database"
	"github.com/tgmetrics/channel-metrics-service/internal/events"
	"github.com/tgmetrics/channel-metrics-service/internal/handler"
	"github.com/tgmetrics/channel-metrics-service/internal/router"
	"github.com/tgmetrics/channel-metrics-service/internal/scraper"
	"github.com/tgmetrics/channel-metrics-service/internal/service"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

// API owns the long-lived resources of the HTTP service: database, the
// background Telegram client, the optional NATS publisher and the server
// itself.
type API struct {
	cfg       *config.Config
	log       *zap.Logger
	srv       *http.Server
	db        *gorm.DB
	tg        *telegram.Client
	publisher *events.Publisher
}

func NewAPI(cfg *config.Config) (*API, error) {
	log, err := NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	channelSvc := service.NewChannelService(db)
	messageSvc := service.NewMessageService(db, log)
	statsSvc := service.NewStatsService(db)

	// The API serves CRUD without Telegram credentials; scrape and auth
	// endpoints report the missing configuration instead.
	var (
		tgClient *telegram.Client
		fetcher  telegram.Fetcher      = telegramDisabled{}
		auth     handler.Authenticator = telegramDisabled{}
	)
	if err := cfg.ValidateTelegram(); err != nil {
		log.Warn("telegram client disabled", zap.Error(err))
	} else {
		tgClient, err = telegram.NewClient(cfg.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("telegram client: %w", err)
		}
		fetcher = tgClient
		auth = tgClient
	}

	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = events.Connect(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			log.Warn("run-summary publishing disabled", zap.Error(err))
			publisher = nil
		}
	}

	orchestrator := scraper.NewOrchestrator(
		channelSvc, messageSvc, fetcher, publisherOrNil(publisher), log,
		cfg.Scraper.MessageLimit)

	r := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(db),
		Channels: handler.NewChannelHandler(channelSvc),
		Messages: handler.NewMessageHandler(channelSvc, messageSvc),
		Stats:    handler.NewStatsHandler(statsSvc),
		Scrape:   handler.NewScrapeHandler(orchestrator),
		Auth:     handler.NewAuthHandler(auth),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second, // scrape runs are synchronous
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, log: log, srv: srv, db: db, tg: tgClient, publisher: publisher}, nil
}

// publisherOrNil keeps the orchestrator's Publisher interface nil when
// publishing is disabled; a typed nil would dodge the nil check.
func publisherOrNil(p *events.Publisher) scraper.Publisher {
	if p == nil {
		return nil
	}
	return p
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	if a.tg != nil {
		go func() {
			if err := a.tg.Start(ctx); err != nil {
				a.log.Error("telegram client", zap.Error(err))
			}
		}()
	}

	a.log.Info("HTTP server listening",
		zap.String("addr", a.srv.Addr),
		zap.String("swagger", "http://"+a.srv.Addr+"/swagger"))

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if a.tg != nil {
		_ = a.tg.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	_ = a.log.Sync()
	return nil
}

// NewLogger builds the process logger; debug switches to the development
// encoder.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
