package telegram

import (
	"context"
	"errors"
	"time"
)

// ErrNotAuthorized is returned when an operation needs a signed-in session
// and the stored one is missing or revoked. Callers start the login flow
// via the auth endpoints and retry.
var ErrNotAuthorized = errors.New("telegram session is not authorized")

// Message is one fetched channel post, normalized from the MTProto shape.
type Message struct {
	ID        int64      `json:"id"`
	Date      time.Time  `json:"date"`
	Text      string     `json:"text"`
	Views     int        `json:"views"`
	Forwards  int        `json:"forwards"`
	Replies   int        `json:"replies"`
	Reactions []Reaction `json:"reactions"`
}

// Reaction is one reaction bucket on a message. Paid covers Telegram Stars
// reactions and Stars-backed custom emoji, which are excluded from the
// organic engagement count.
type Reaction struct {
	Count int  `json:"count"`
	Paid  bool `json:"paid"`
}

// ChannelFetch is the result of pulling one channel's recent history.
// SubscriberCount is 0 when Telegram did not report it.
type ChannelFetch struct {
	Messages        []Message
	SubscriberCount int
}

// Fetcher is the read surface the scrape orchestrator depends on.
type Fetcher interface {
	// Authorized reports whether the session can make API calls.
	Authorized(ctx context.Context) (bool, error)
	// Fetch returns up to limit recent messages for the channel,
	// oldest-first, resolved by username when set or by channel ID.
	Fetch(ctx context.Context, channelID int64, username string, limit int) (*ChannelFetch, error)
}
