package scraper

import (
	"encoding/json"
	"math"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

// TotalFreeReactions sums reaction counts, excluding paid (Stars) buckets.
func TotalFreeReactions(reactions []telegram.Reaction) int {
	total := 0
	for _, r := range reactions {
		if r.Paid {
			continue
		}
		total += r.Count
	}
	return total
}

// EngagementRate is engagement relative to views as a percentage, 0 when
// the message has no views. Rounded to 4 decimals.
func EngagementRate(engagementCount, views int) float64 {
	if views <= 0 {
		return 0
	}
	rate := float64(engagementCount) / float64(views) * 100
	return math.Round(rate*10000) / 10000
}

// BuildRecord converts a fetched message into its stored form, computing
// all derived metrics. Pure and deterministic.
func BuildRecord(channelID int64, msg telegram.Message) model.Message {
	totalReactions := TotalFreeReactions(msg.Reactions)
	engagementCount := totalReactions + msg.Forwards + msg.Replies

	rec := model.Message{
		ChannelID:       channelID,
		MessageID:       msg.ID,
		Text:            msg.Text,
		Views:           msg.Views,
		Forwards:        msg.Forwards,
		Replies:         msg.Replies,
		TotalReactions:  totalReactions,
		EngagementCount: engagementCount,
		EngagementRate:  EngagementRate(engagementCount, msg.Views),
		PostLength:      utf8.RuneCountInString(msg.Text),
	}
	if !msg.Date.IsZero() {
		date := msg.Date
		rec.Date = &date
	}
	if raw, err := json.Marshal(msg); err == nil {
		rec.RawJSON = datatypes.JSON(raw)
	}
	return rec
}
