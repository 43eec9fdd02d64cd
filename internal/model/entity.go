package model

import (
	"time"

	"gorm.io/datatypes"
)

// Channel is a Telegram channel registered for scraping. Soft delete is
// implemented with the IsActive flag; LastScrapedAt is touched by the
// orchestrator after a scrape stored at least one message.
type Channel struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"type:varchar(255);not null;index" json:"title"`
	Username        *string    `gorm:"type:varchar(255);index" json:"username"`
	ChannelID       int64      `gorm:"not null;uniqueIndex" json:"channel_id"`
	IsActive        bool       `gorm:"not null;default:true;index" json:"is_active"`
	SubscriberCount *int       `json:"subscriber_count"`
	ColorFlag       *int       `json:"color_flag"`
	Notes           *string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
	LastScrapedAt   *time.Time `json:"last_scraped_at"`

	Messages []Message `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Channel) TableName() string { return "telegram_channels" }

// Message is one scraped post with its raw counters and the metrics derived
// from them. (ChannelID, MessageID) is unique so re-scrapes update in place.
type Message struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	ChannelID       int64          `gorm:"not null;uniqueIndex:idx_channel_message,priority:1;index" json:"channel_id"`
	MessageID       int64          `gorm:"not null;uniqueIndex:idx_channel_message,priority:2" json:"message_id"`
	Date            *time.Time     `gorm:"index" json:"date"`
	Text            string         `gorm:"type:text" json:"text"`
	Views           int            `gorm:"not null;default:0" json:"views"`
	Forwards        int            `gorm:"not null;default:0" json:"forwards"`
	Replies         int            `gorm:"not null;default:0" json:"replies"`
	TotalReactions  int            `gorm:"not null;default:0" json:"total_reactions"`
	EngagementCount int            `gorm:"not null;default:0;index" json:"engagement_count"`
	EngagementRate  float64        `gorm:"not null;default:0;index" json:"engagement_rate"`
	PostLength      int            `gorm:"not null;default:0" json:"post_length"`
	RawJSON         datatypes.JSON `gorm:"column:raw_json" json:"-"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
}

func (Message) TableName() string { return "telegram_messages" }
