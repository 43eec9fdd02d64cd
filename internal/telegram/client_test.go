package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
)

var _ Fetcher = (*Client)(nil)

func TestBareChannelID(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{-1001234567890, 1234567890},
		{-1234567890, 1234567890},
		{1234567890, 1234567890},
	}
	for _, tt := range tests {
		if got := bareChannelID(tt.in); got != tt.want {
			t.Fatalf("bareChannelID(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseMessageSkipsServiceMessages(t *testing.T) {
	if _, ok := parseMessage(&tg.MessageService{ID: 1}); ok {
		t.Fatal("service message was not skipped")
	}
}

func TestParseMessageReactionMapping(t *testing.T) {
	msg, ok := parseMessage(&tg.Message{
		ID:       5,
		Date:     1700000000,
		Message:  "hi",
		Views:    7,
		Forwards: 2,
		Reactions: tg.MessageReactions{
			Results: []tg.ReactionCount{
				{Reaction: &tg.ReactionEmoji{Emoticon: "x"}, Count: 3},
				{Reaction: &tg.ReactionPaid{}, Count: 2},
				{Reaction: &tg.ReactionCustomEmoji{DocumentID: 1}, Count: 4},
			},
		},
	})
	if !ok {
		t.Fatal("regular message was skipped")
	}
	if msg.ID != 5 || msg.Views != 7 || msg.Forwards != 2 {
		t.Fatalf("parsed = %+v, counters lost", msg)
	}
	if len(msg.Reactions) != 3 {
		t.Fatalf("reactions = %d, want 3", len(msg.Reactions))
	}
	if msg.Reactions[0].Paid {
		t.Fatal("emoji reaction flagged paid")
	}
	if !msg.Reactions[1].Paid || !msg.Reactions[2].Paid {
		t.Fatal("paid and custom-emoji reactions must be flagged paid")
	}
}

func TestFindChannel(t *testing.T) {
	chats := []tg.ChatClass{
		&tg.Chat{ID: 10},
		&tg.Channel{ID: 42, AccessHash: 7},
	}
	if ch := findChannel(chats, 42); ch == nil || ch.AccessHash != 7 {
		t.Fatalf("findChannel(42) = %v, want the channel with access hash 7", ch)
	}
	if ch := findChannel(chats, 10); ch != nil {
		t.Fatal("plain chat matched as channel")
	}
}
