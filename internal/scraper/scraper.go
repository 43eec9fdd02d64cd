package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
	"github.com/tgmetrics/channel-metrics-service/internal/service"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

// DefaultMessageLimit caps messages fetched per channel when neither the
// request nor the configuration says otherwise.
const DefaultMessageLimit = 200

// Publisher receives the summary of a completed run. Satisfied by
// events.Publisher; nil disables publishing.
type Publisher interface {
	Publish(v any) error
}

// ChannelResult is the outcome of scraping one channel. Failures are
// recorded here instead of aborting the run.
type ChannelResult struct {
	ChannelID       int64  `json:"channel_id"`
	Title           string `json:"title"`
	Success         bool   `json:"success"`
	MessagesScraped int    `json:"messages_scraped"`
	MessagesUpdated int    `json:"messages_updated"`
	MessagesSkipped int    `json:"messages_skipped"`
	Error           string `json:"error,omitempty"`
}

// RunSummary aggregates one orchestrator run.
type RunSummary struct {
	RunID                string          `json:"run_id"`
	Success              bool            `json:"success"`
	ChannelsProcessed    int             `json:"channels_processed"`
	TotalMessagesScraped int             `json:"total_messages_scraped"`
	TotalMessagesUpdated int             `json:"total_messages_updated"`
	Errors               []string        `json:"errors"`
	Results              []ChannelResult `json:"results"`
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          time.Time       `json:"completed_at"`
}

// Orchestrator walks active channels sequentially over the single shared
// Telegram connection, computing metrics and upserting each channel's
// recent history.
type Orchestrator struct {
	channels     *service.ChannelService
	messages     *service.MessageService
	fetcher      telegram.Fetcher
	publisher    Publisher
	log          *zap.Logger
	defaultLimit int
}

func NewOrchestrator(
	channels *service.ChannelService,
	messages *service.MessageService,
	fetcher telegram.Fetcher,
	publisher Publisher,
	log *zap.Logger,
	defaultLimit int,
) *Orchestrator {
	if defaultLimit <= 0 {
		defaultLimit = DefaultMessageLimit
	}
	return &Orchestrator{
		channels:     channels,
		messages:     messages,
		fetcher:      fetcher,
		publisher:    publisher,
		log:          log,
		defaultLimit: defaultLimit,
	}
}

// Run scrapes the requested channels (all active ones when channelIDs is
// empty). A failure on one channel is recorded in its result and the run
// continues. Returns telegram.ErrNotAuthorized without touching any
// channel when the session is not signed in.
func (o *Orchestrator) Run(ctx context.Context, channelIDs []int64, limit int) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Errors:    []string{},
		Results:   []ChannelResult{},
	}
	if limit <= 0 {
		limit = o.defaultLimit
	}

	authorized, err := o.fetcher.Authorized(ctx)
	if err != nil {
		return nil, fmt.Errorf("check authorization: %w", err)
	}
	if !authorized {
		return nil, telegram.ErrNotAuthorized
	}

	var channels []model.Channel
	if len(channelIDs) > 0 {
		channels, err = o.channels.ListActiveByIDs(ctx, channelIDs)
	} else {
		channels, err = o.channels.ListActive(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		summary.Errors = append(summary.Errors, "no active channels found")
		summary.CompletedAt = time.Now().UTC()
		return summary, nil
	}

	o.log.Info("starting scrape run",
		zap.String("run_id", summary.RunID),
		zap.Int("channels", len(channels)),
		zap.Int("limit", limit))

	for _, ch := range channels {
		result := o.scrapeChannel(ctx, ch, limit)
		summary.Results = append(summary.Results, result)
		summary.ChannelsProcessed++
		if result.Success {
			summary.TotalMessagesScraped += result.MessagesScraped
			summary.TotalMessagesUpdated += result.MessagesUpdated
		} else {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", ch.Title, result.Error))
		}
	}

	summary.Success = len(summary.Errors) == 0
	summary.CompletedAt = time.Now().UTC()

	o.log.Info("scrape run completed",
		zap.String("run_id", summary.RunID),
		zap.Int("channels_processed", summary.ChannelsProcessed),
		zap.Int("messages_scraped", summary.TotalMessagesScraped),
		zap.Int("messages_updated", summary.TotalMessagesUpdated),
		zap.Int("errors", len(summary.Errors)))

	if o.publisher != nil {
		if err := o.publisher.Publish(summary); err != nil {
			o.log.Warn("publish run summary", zap.Error(err))
		}
	}
	return summary, nil
}

func (o *Orchestrator) scrapeChannel(ctx context.Context, ch model.Channel, limit int) ChannelResult {
	result := ChannelResult{ChannelID: ch.ID, Title: ch.Title}

	username := ""
	if ch.Username != nil {
		username = *ch.Username
	}
	fetched, err := o.fetcher.Fetch(ctx, ch.ChannelID, username, limit)
	if err != nil {
		result.Error = err.Error()
		o.log.Warn("channel fetch failed",
			zap.Int64("channel_id", ch.ChannelID),
			zap.String("title", ch.Title),
			zap.Error(err))
		return result
	}

	records := make([]model.Message, 0, len(fetched.Messages))
	for _, msg := range fetched.Messages {
		records = append(records, BuildRecord(ch.ID, msg))
	}
	created, updated, skipped := o.messages.UpsertBatch(ctx, ch.ID, records)

	// The scrape timestamp only advances when something was actually
	// stored; a run where every record failed leaves it untouched.
	if created+updated > 0 {
		if err := o.channels.TouchLastScraped(ctx, ch.ID); err != nil {
			o.log.Warn("update last_scraped_at", zap.Int64("channel_id", ch.ChannelID), zap.Error(err))
		}
	}
	if fetched.SubscriberCount > 0 {
		if err := o.channels.SetSubscriberCount(ctx, ch.ID, fetched.SubscriberCount); err != nil {
			o.log.Warn("update subscriber_count", zap.Int64("channel_id", ch.ChannelID), zap.Error(err))
		}
	}

	result.Success = true
	result.MessagesScraped = created
	result.MessagesUpdated = updated
	result.MessagesSkipped = skipped

	o.log.Info("channel scraped",
		zap.String("title", ch.Title),
		zap.Int("new", created),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped))
	return result
}
