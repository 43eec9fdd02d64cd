package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
)

// ChannelService implements channel CRUD and the channel-level aggregates.
type ChannelService struct {
	db *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{db: db}
}

// Create registers a new channel. The Telegram channel_id must be unique.
func (s *ChannelService) Create(ctx context.Context, req model.ChannelCreate) (*model.Channel, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Channel{}).
		Where("channel_id = ?", req.ChannelID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check channel_id: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateChannel
	}

	ch := &model.Channel{
		Title:     req.Title,
		Username:  req.Username,
		ChannelID: req.ChannelID,
		IsActive:  true,
		Notes:     req.Notes,
	}
	if req.IsActive != nil {
		ch.IsActive = *req.IsActive
	}
	if err := s.db.WithContext(ctx).Create(ch).Error; err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}

// Get returns the channel with the given internal ID.
func (s *ChannelService) Get(ctx context.Context, id int64) (*model.Channel, error) {
	var ch model.Channel
	err := s.db.WithContext(ctx).First(&ch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ch, nil
}

// List returns channels newest-first with offset/limit pagination and an
// optional is_active filter.
func (s *ChannelService) List(ctx context.Context, isActive *bool, skip, limit int) ([]model.Channel, error) {
	if limit <= 0 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&model.Channel{})
	if isActive != nil {
		q = q.Where("is_active = ?", *isActive)
	}
	channels := []model.Channel{}
	err := q.Order("created_at DESC").Offset(skip).Limit(limit).Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// Update applies a partial patch. Changing channel_id re-checks uniqueness.
func (s *ChannelService) Update(ctx context.Context, id int64, req model.ChannelUpdate) (*model.Channel, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ChannelID != nil && *req.ChannelID != ch.ChannelID {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Channel{}).
			Where("channel_id = ?", *req.ChannelID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check channel_id: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateChannel
		}
		ch.ChannelID = *req.ChannelID
	}
	if req.Title != nil {
		ch.Title = *req.Title
	}
	if req.Username != nil {
		ch.Username = req.Username
	}
	if req.IsActive != nil {
		ch.IsActive = *req.IsActive
	}
	if req.ColorFlag != nil {
		ch.ColorFlag = req.ColorFlag
	}
	if req.Notes != nil {
		ch.Notes = req.Notes
	}
	ch.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(ch).Error; err != nil {
		return nil, fmt.Errorf("update channel: %w", err)
	}
	return ch, nil
}

// UpdateColorFlag sets only the frontend color flag.
func (s *ChannelService) UpdateColorFlag(ctx context.Context, id int64, flag *int) (*model.Channel, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ch.ColorFlag = flag
	ch.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(ch).Error; err != nil {
		return nil, fmt.Errorf("update color flag: %w", err)
	}
	return ch, nil
}

// SoftDelete deactivates a channel; its messages stay queryable.
func (s *ChannelService) SoftDelete(ctx context.Context, id int64) (*model.Channel, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ch.IsActive = false
	ch.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(ch).Error; err != nil {
		return nil, fmt.Errorf("soft delete channel: %w", err)
	}
	return ch, nil
}

// HardDelete removes the channel and all of its messages. The message
// delete is explicit so the cascade holds on every backend, not only those
// enforcing the FK constraint.
func (s *ChannelService) HardDelete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Delete(&model.Channel{}, id).Error; err != nil {
			return fmt.Errorf("delete channel: %w", err)
		}
		return nil
	})
}

// ListWithStats returns channels with message count, latest message date and
// averages over messages that have views. Averages stay nil for channels
// without such messages.
func (s *ChannelService) ListWithStats(ctx context.Context, isActive *bool, skip, limit int) ([]model.ChannelWithStats, error) {
	if limit <= 0 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&model.Channel{}).
		Select(`telegram_channels.*,
			COUNT(m.id) AS messages_count,
			MAX(m.date) AS latest_message_date,
			AVG(CASE WHEN m.views > 0 THEN m.engagement_rate END) AS avg_engagement_rate,
			AVG(CASE WHEN m.views > 0 THEN m.views END) AS avg_views`).
		Joins("LEFT JOIN telegram_messages m ON m.channel_id = telegram_channels.id").
		Group("telegram_channels.id")
	if isActive != nil {
		q = q.Where("telegram_channels.is_active = ?", *isActive)
	}

	// MAX(date) is scanned through aggTime: the aggregate column comes back
	// as a string on sqlite.
	type channelStatsRow struct {
		model.Channel
		MessagesCount     int64
		LatestMessageDate aggTime
		AvgEngagementRate *float64
		AvgViews          *float64
	}
	rows := []channelStatsRow{}
	err := q.Order("telegram_channels.created_at DESC").Offset(skip).Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list channels with stats: %w", err)
	}

	out := make([]model.ChannelWithStats, 0, len(rows))
	for _, r := range rows {
		item := model.ChannelWithStats{
			Channel:           r.Channel,
			MessagesCount:     r.MessagesCount,
			LatestMessageDate: r.LatestMessageDate.Time,
			AvgEngagementRate: r.AvgEngagementRate,
			AvgViews:          r.AvgViews,
		}
		if item.AvgEngagementRate != nil {
			v := round2(*item.AvgEngagementRate)
			item.AvgEngagementRate = &v
		}
		if item.AvgViews != nil {
			v := round2(*item.AvgViews)
			item.AvgViews = &v
		}
		out = append(out, item)
	}
	return out, nil
}

// ListActive returns every channel eligible for scraping.
func (s *ChannelService) ListActive(ctx context.Context) ([]model.Channel, error) {
	channels := []model.Channel{}
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).Order("id ASC").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}
	return channels, nil
}

// ListActiveByIDs returns the active subset of the requested channels.
func (s *ChannelService) ListActiveByIDs(ctx context.Context, ids []int64) ([]model.Channel, error) {
	channels := []model.Channel{}
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).Order("id ASC").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("list channels by ids: %w", err)
	}
	return channels, nil
}

// TouchLastScraped records a successful scrape of the channel.
func (s *ChannelService) TouchLastScraped(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Model(&model.Channel{}).Where("id = ?", id).
		Update("last_scraped_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("touch last_scraped_at: %w", err)
	}
	return nil
}

// SetSubscriberCount stores the member count reported by Telegram.
func (s *ChannelService) SetSubscriberCount(ctx context.Context, id int64, count int) error {
	err := s.db.WithContext(ctx).Model(&model.Channel{}).Where("id = ?", id).
		Update("subscriber_count", count).Error
	if err != nil {
		return fmt.Errorf("set subscriber_count: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
