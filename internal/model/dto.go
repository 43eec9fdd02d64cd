package model

import "time"

// ChannelCreate is the request body for POST /channels.
type ChannelCreate struct {
	Title     string  `json:"title" binding:"required,min=1,max=255"`
	Username  *string `json:"username" binding:"omitempty,max=255"`
	ChannelID int64   `json:"channel_id" binding:"required"`
	IsActive  *bool   `json:"is_active"`
	Notes     *string `json:"notes"`
}

// ChannelUpdate is the request body for PATCH /channels/:id. All fields are
// optional; only set fields are applied.
type ChannelUpdate struct {
	Title     *string `json:"title" binding:"omitempty,min=1,max=255"`
	Username  *string `json:"username" binding:"omitempty,max=255"`
	ChannelID *int64  `json:"channel_id"`
	IsActive  *bool   `json:"is_active"`
	ColorFlag *int    `json:"color_flag"`
	Notes     *string `json:"notes"`
}

// ColorFlagUpdate is the request body for PATCH /channels/:id/color.
type ColorFlagUpdate struct {
	ColorFlag *int `json:"color_flag" binding:"required"`
}

// ChannelWithStats is a channel row enriched with message aggregates.
// Averages are nil when the channel has no messages with views.
type ChannelWithStats struct {
	Channel
	MessagesCount     int64      `json:"messages_count"`
	LatestMessageDate *time.Time `json:"latest_message_date"`
	AvgEngagementRate *float64   `json:"avg_engagement_rate"`
	AvgViews          *float64   `json:"avg_views"`
}

// ChannelStats is the detailed per-channel aggregate for /stats/channels.
type ChannelStats struct {
	ChannelID       int64      `json:"channel_id"`
	ChannelTitle    string     `json:"channel_title"`
	IsActive        bool       `json:"is_active"`
	LastScrapedAt   *time.Time `json:"last_scraped_at"`
	SubscriberCount *int       `json:"subscriber_count"`

	TotalMessages     int64      `json:"total_messages"`
	LatestMessageDate *time.Time `json:"latest_message_date"`

	AvgViews           float64 `json:"avg_views"`
	AvgReactions       float64 `json:"avg_reactions"`
	AvgForwards        float64 `json:"avg_forwards"`
	AvgReplies         float64 `json:"avg_replies"`
	AvgEngagementCount float64 `json:"avg_engagement_count"`
	AvgEngagementRate  float64 `json:"avg_engagement_rate"`
}

// GlobalStats summarizes the whole database.
type GlobalStats struct {
	TotalChannels  int64      `json:"total_channels"`
	ActiveChannels int64      `json:"active_channels"`
	TotalMessages  int64      `json:"total_messages"`
	LastScrapeTime *time.Time `json:"last_scrape_time"`
}

// ScrapeRequest triggers a scrape run. Empty ChannelIDs means all active
// channels; Limit caps messages fetched per channel.
type ScrapeRequest struct {
	ChannelIDs []int64 `json:"channel_ids"`
	Limit      int     `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// ScrapeResponse reports the outcome of one orchestrator run.
type ScrapeResponse struct {
	RunID                string    `json:"run_id"`
	Success              bool      `json:"success"`
	ChannelsProcessed    int       `json:"channels_processed"`
	TotalMessagesScraped int       `json:"total_messages_scraped"`
	TotalMessagesUpdated int       `json:"total_messages_updated"`
	Errors               []string  `json:"errors"`
	StartedAt            time.Time `json:"started_at"`
	CompletedAt          time.Time `json:"completed_at"`
}

// AuthStartRequest begins the Telegram login flow.
type AuthStartRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// AuthStartResponse carries the code hash needed for verification.
type AuthStartResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	PhoneCodeHash string `json:"phone_code_hash,omitempty"`
}

// AuthVerifyRequest completes the login flow with the received code.
type AuthVerifyRequest struct {
	PhoneNumber   string `json:"phone_number" binding:"required"`
	Code          string `json:"code" binding:"required"`
	PhoneCodeHash string `json:"phone_code_hash" binding:"required"`
}

// AuthVerifyResponse reports the sign-in result.
type AuthVerifyResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	UserInfo map[string]any `json:"user_info,omitempty"`
}

// AuthStatusResponse reports whether the stored session is authorized.
type AuthStatusResponse struct {
	Authorized bool           `json:"authorized"`
	UserInfo   map[string]any `json:"user_info,omitempty"`
}
