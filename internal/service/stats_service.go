package service

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
)

// StatsService computes the global and per-channel aggregates.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Global returns totals across all channels and the most recent scrape time.
func (s *StatsService) Global(ctx context.Context) (*model.GlobalStats, error) {
	var stats model.GlobalStats

	if err := s.db.WithContext(ctx).Model(&model.Channel{}).Count(&stats.TotalChannels).Error; err != nil {
		return nil, fmt.Errorf("count channels: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Channel{}).
		Where("is_active = ?", true).Count(&stats.ActiveChannels).Error; err != nil {
		return nil, fmt.Errorf("count active channels: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	var lastScrape aggTime
	row := s.db.WithContext(ctx).Model(&model.Channel{}).
		Select("MAX(last_scraped_at)").Row()
	if err := row.Scan(&lastScrape); err != nil {
		return nil, fmt.Errorf("max last_scraped_at: %w", err)
	}
	stats.LastScrapeTime = lastScrape.Time

	return &stats, nil
}

// channelAgg is the scan target for the per-channel aggregate query.
type channelAgg struct {
	TotalMessages      int64
	LatestMessageDate  aggTime
	AvgViews           *float64
	AvgReactions       *float64
	AvgForwards        *float64
	AvgReplies         *float64
	AvgEngagementCount *float64
	AvgEngagementRate  *float64
}

// PerChannel returns detailed aggregates for every channel, optionally
// filtered by active status. Messages without views are excluded from the
// averages so unviewable service posts do not drag them down.
func (s *StatsService) PerChannel(ctx context.Context, isActive *bool) ([]model.ChannelStats, error) {
	q := s.db.WithContext(ctx).Model(&model.Channel{})
	if isActive != nil {
		q = q.Where("is_active = ?", *isActive)
	}
	channels := []model.Channel{}
	if err := q.Order("id ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	stats := make([]model.ChannelStats, 0, len(channels))
	for _, ch := range channels {
		var agg channelAgg
		err := s.db.WithContext(ctx).Model(&model.Message{}).
			Select(`COUNT(id) AS total_messages,
				MAX(date) AS latest_message_date,
				AVG(CASE WHEN views > 0 THEN views END) AS avg_views,
				AVG(CASE WHEN views > 0 THEN total_reactions END) AS avg_reactions,
				AVG(CASE WHEN views > 0 THEN forwards END) AS avg_forwards,
				AVG(CASE WHEN views > 0 THEN replies END) AS avg_replies,
				AVG(CASE WHEN views > 0 THEN engagement_count END) AS avg_engagement_count,
				AVG(CASE WHEN views > 0 THEN engagement_rate END) AS avg_engagement_rate`).
			Where("channel_id = ?", ch.ID).
			Scan(&agg).Error
		if err != nil {
			return nil, fmt.Errorf("aggregate channel %d: %w", ch.ID, err)
		}

		stats = append(stats, model.ChannelStats{
			ChannelID:          ch.ID,
			ChannelTitle:       ch.Title,
			IsActive:           ch.IsActive,
			LastScrapedAt:      ch.LastScrapedAt,
			SubscriberCount:    ch.SubscriberCount,
			TotalMessages:      agg.TotalMessages,
			LatestMessageDate:  agg.LatestMessageDate.Time,
			AvgViews:           round2OrZero(agg.AvgViews),
			AvgReactions:       round2OrZero(agg.AvgReactions),
			AvgForwards:        round2OrZero(agg.AvgForwards),
			AvgReplies:         round2OrZero(agg.AvgReplies),
			AvgEngagementCount: round2OrZero(agg.AvgEngagementCount),
			AvgEngagementRate:  round4OrZero(agg.AvgEngagementRate),
		})
	}
	return stats, nil
}

func round2OrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return round2(*v)
}

func round4OrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return math.Round(*v*10000) / 10000
}
