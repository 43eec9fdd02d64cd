package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
)

// messageSortColumns whitelists the caller-selectable sort fields.
var messageSortColumns = map[string]string{
	"date":             "date",
	"engagement_rate":  "engagement_rate",
	"engagement_count": "engagement_count",
	"views":            "views",
}

// upsertColumns are the mutable fields overwritten when a message is
// re-scraped.
var upsertColumns = []string{
	"date", "text", "views", "forwards", "replies",
	"total_reactions", "engagement_count", "engagement_rate",
	"post_length", "raw_json",
}

// MessageService implements message listing and the batch upsert writer.
type MessageService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMessageService(db *gorm.DB, log *zap.Logger) *MessageService {
	return &MessageService{db: db, log: log}
}

// ListForChannel returns a page of messages sorted by a whitelisted field.
// Unknown sort fields fall back to date; order is descending unless "asc"
// is requested; id DESC breaks ties so pages are stable.
func (s *MessageService) ListForChannel(ctx context.Context, channelID int64, skip, limit int, orderBy, order string) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	column, ok := messageSortColumns[orderBy]
	if !ok {
		column = "date"
	}
	dir := "DESC"
	if order == "asc" {
		dir = "ASC"
	}

	messages := []model.Message{}
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order(fmt.Sprintf("%s %s, id DESC", column, dir)).
		Offset(skip).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// UpsertBatch writes the computed records for one channel. Each record is
// inserted, or updated in place when (channel_id, message_id) already
// exists; the unique index makes the write idempotent under retry. A
// failure on one record is logged and skipped without aborting the batch.
func (s *MessageService) UpsertBatch(ctx context.Context, channelID int64, records []model.Message) (created, updated, skipped int) {
	if len(records) == 0 {
		return 0, 0, 0
	}

	messageIDs := make([]int64, 0, len(records))
	for _, r := range records {
		messageIDs = append(messageIDs, r.MessageID)
	}
	existing := make(map[int64]bool, len(records))
	var existingIDs []int64
	if err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("channel_id = ? AND message_id IN ?", channelID, messageIDs).
		Pluck("message_id", &existingIDs).Error; err != nil {
		s.log.Warn("lookup existing messages failed, counting all as new",
			zap.Int64("channel_id", channelID), zap.Error(err))
	}
	for _, id := range existingIDs {
		existing[id] = true
	}

	for i := range records {
		rec := records[i]
		rec.ChannelID = channelID
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}, {Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(&rec).Error
		if err != nil {
			skipped++
			s.log.Warn("message upsert failed, skipping record",
				zap.Int64("channel_id", channelID),
				zap.Int64("message_id", rec.MessageID),
				zap.Error(err))
			continue
		}
		if existing[rec.MessageID] {
			updated++
		} else {
			created++
		}
	}
	return created, updated, skipped
}

// CountForChannel returns how many messages are stored for a channel.
func (s *MessageService) CountForChannel(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("channel_id = ?", channelID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
