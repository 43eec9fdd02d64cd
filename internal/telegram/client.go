package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/tgmetrics/channel-metrics-service/internal/config"
)

// resolvedPeer caches the access hash and member count of a channel so each
// scrape run resolves a channel at most once per process.
type resolvedPeer struct {
	peer        tg.InputPeerClass
	subscribers int
}

// Client wraps the gotd MTProto client. The connection runs in the
// background from Start; all API-touching methods block until it is up.
// Authentication is driven through the auth endpoints, so the client comes
// up unauthenticated and stays usable for the login flow.
type Client struct {
	cfg    config.TelegramConfig
	log    *zap.Logger
	client *telegram.Client

	ready  chan struct{}
	cancel context.CancelFunc

	mu    sync.Mutex
	peers map[int64]resolvedPeer
}

func NewClient(cfg config.TelegramConfig, log *zap.Logger) (*Client, error) {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("API ID and API hash are required for MTProto client")
	}

	c := &Client{
		cfg:   cfg,
		log:   log,
		ready: make(chan struct{}),
		peers: make(map[int64]resolvedPeer),
	}
	c.client = telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		Logger:         log.Named("gotd"),
	})
	return c, nil
}

// Start runs the MTProto client until ctx is cancelled or Close is called.
// It blocks; run it in a goroutine and gate API use on the ready channel.
func (c *Client) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	err := c.client.Run(runCtx, func(ctx context.Context) error {
		c.log.Info("telegram client connected")
		close(c.ready)
		<-ctx.Done()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram client stopped: %w", err)
	}
	return nil
}

// Close stops the background client.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Client) waitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ready:
		return nil
	}
}

// Authorized reports whether the stored session can make API calls.
func (c *Client) Authorized(ctx context.Context) (bool, error) {
	if err := c.waitReady(ctx); err != nil {
		return false, err
	}
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("auth status: %w", err)
	}
	return status.Authorized, nil
}

// Fetch pulls up to limit recent messages from a channel, oldest-first.
func (c *Client) Fetch(ctx context.Context, channelID int64, username string, limit int) (*ChannelFetch, error) {
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}

	resolved, err := c.resolvePeer(ctx, channelID, username)
	if err != nil {
		return nil, err
	}

	history, err := c.client.API().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  resolved.peer,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get history for channel %d: %w", channelID, err)
	}

	var raw []tg.MessageClass
	switch result := history.(type) {
	case *tg.MessagesMessages:
		raw = result.Messages
	case *tg.MessagesChannelMessages:
		raw = result.Messages
	default:
		return nil, fmt.Errorf("unexpected history result type %T for channel %d", result, channelID)
	}

	messages := make([]Message, 0, len(raw))
	for _, m := range raw {
		if msg, ok := parseMessage(m); ok {
			messages = append(messages, msg)
		}
	}
	// Telegram returns newest-first; normalize to oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &ChannelFetch{Messages: messages, SubscriberCount: resolved.subscribers}, nil
}

// dialogFetchLimit bounds the dialog page scanned when resolving a channel
// by ID; Telegram caps getDialogs at 500 entries per request.
const dialogFetchLimit = 500

// resolvePeer finds the input peer for a channel, preferring the public
// username and falling back to matching the channel ID against the
// account's dialog list (the only way to learn the access hash of a private
// channel the account is a member of).
func (c *Client) resolvePeer(ctx context.Context, channelID int64, username string) (resolvedPeer, error) {
	c.mu.Lock()
	if cached, ok := c.peers[channelID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var channel *tg.Channel
	if username != "" {
		name := strings.TrimPrefix(username, "@")
		result, err := c.client.API().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
			Username: name,
		})
		if err != nil {
			return resolvedPeer{}, fmt.Errorf("resolve username %s: %w", name, err)
		}
		peerChannel, ok := result.Peer.(*tg.PeerChannel)
		if !ok {
			return resolvedPeer{}, fmt.Errorf("username %s is not a channel", name)
		}
		channel = findChannel(result.Chats, peerChannel.ChannelID)
	} else {
		dialogs, err := c.client.API().MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetPeer: &tg.InputPeerEmpty{},
			Limit:      dialogFetchLimit,
		})
		if err != nil {
			return resolvedPeer{}, fmt.Errorf("list dialogs: %w", err)
		}
		var all []tg.ChatClass
		switch result := dialogs.(type) {
		case *tg.MessagesDialogs:
			all = result.Chats
		case *tg.MessagesDialogsSlice:
			all = result.Chats
		}
		channel = findChannel(all, bareChannelID(channelID))
	}
	if channel == nil {
		return resolvedPeer{}, fmt.Errorf("channel %d not accessible from this account", channelID)
	}

	resolved := resolvedPeer{
		peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		subscribers: channel.ParticipantsCount,
	}
	c.mu.Lock()
	c.peers[channelID] = resolved
	c.mu.Unlock()
	return resolved, nil
}

func findChannel(chats []tg.ChatClass, id int64) *tg.Channel {
	for _, chat := range chats {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == id {
			return ch
		}
	}
	return nil
}

// bareChannelID strips the -100 prefix of a marked channel ID
// (-1001234567890 -> 1234567890).
func bareChannelID(id int64) int64 {
	const marker = 1_000_000_000_000
	if id < -marker {
		return -id - marker
	}
	if id < 0 {
		return -id
	}
	return id
}

func parseMessage(m tg.MessageClass) (Message, bool) {
	msg, ok := m.(*tg.Message)
	if !ok {
		// Service messages carry no engagement data.
		return Message{}, false
	}

	out := Message{
		ID:       int64(msg.ID),
		Date:     time.Unix(int64(msg.Date), 0).UTC(),
		Text:     msg.Message,
		Views:    msg.Views,
		Forwards: msg.Forwards,
		Replies:  msg.Replies.Replies,
	}
	for _, rc := range msg.Reactions.Results {
		paid := false
		switch rc.Reaction.(type) {
		case *tg.ReactionPaid, *tg.ReactionCustomEmoji:
			paid = true
		}
		out.Reactions = append(out.Reactions, Reaction{Count: rc.Count, Paid: paid})
	}
	return out, true
}
