package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tgmetrics/channel-metrics-service/internal/config"
	"github.com/tgmetrics/channel-metrics-service/internal/database"
	"github.com/tgmetrics/channel-metrics-service/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func mustCreateChannel(t *testing.T, svc *ChannelService, title string, channelID int64) *model.Channel {
	t.Helper()
	ch, err := svc.Create(context.Background(), model.ChannelCreate{Title: title, ChannelID: channelID})
	if err != nil {
		t.Fatal(err)
	}
	return ch
}

func TestCreateDuplicateChannelID(t *testing.T) {
	svc := NewChannelService(setupTestDB(t))
	mustCreateChannel(t, svc, "first", -1001234)

	_, err := svc.Create(context.Background(), model.ChannelCreate{Title: "second", ChannelID: -1001234})
	if !errors.Is(err, ErrDuplicateChannel) {
		t.Fatalf("err = %v, want ErrDuplicateChannel", err)
	}
}

func TestGetMissingChannel(t *testing.T) {
	svc := NewChannelService(setupTestDB(t))
	if _, err := svc.Get(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePartialPatch(t *testing.T) {
	svc := NewChannelService(setupTestDB(t))
	ch := mustCreateChannel(t, svc, "old title", -100)

	newTitle := "new title"
	updated, err := svc.Update(context.Background(), ch.ID, model.ChannelUpdate{Title: &newTitle})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "new title" {
		t.Fatalf("Title = %q, want %q", updated.Title, "new title")
	}
	if updated.ChannelID != -100 {
		t.Fatalf("ChannelID = %d, unset field was overwritten", updated.ChannelID)
	}
}

func TestUpdateRejectsDuplicateChannelID(t *testing.T) {
	svc := NewChannelService(setupTestDB(t))
	mustCreateChannel(t, svc, "a", -100)
	b := mustCreateChannel(t, svc, "b", -200)

	taken := int64(-100)
	_, err := svc.Update(context.Background(), b.ID, model.ChannelUpdate{ChannelID: &taken})
	if !errors.Is(err, ErrDuplicateChannel) {
		t.Fatalf("err = %v, want ErrDuplicateChannel", err)
	}
}

func TestSoftDeleteKeepsMessages(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	ch := mustCreateChannel(t, channels, "soft", -100)

	messages.UpsertBatch(context.Background(), ch.ID, []model.Message{{MessageID: 1, Views: 10}})

	deleted, err := channels.SoftDelete(context.Background(), ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.IsActive {
		t.Fatal("IsActive = true after soft delete")
	}
	count, err := messages.CountForChannel(context.Background(), ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("messages after soft delete = %d, want 1", count)
	}
}

func TestHardDeleteRemovesMessages(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	ch := mustCreateChannel(t, channels, "hard", -100)

	messages.UpsertBatch(context.Background(), ch.ID, []model.Message{
		{MessageID: 1, Views: 10},
		{MessageID: 2, Views: 20},
	})

	if err := channels.HardDelete(context.Background(), ch.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := channels.Get(context.Background(), ch.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after hard delete", err)
	}
	count, err := messages.CountForChannel(context.Background(), ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("messages after hard delete = %d, want 0", count)
	}
}

func TestUpsertBatchInsertThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	ch := mustCreateChannel(t, channels, "upsert", -100)
	ctx := context.Background()

	created, updated, skipped := messages.UpsertBatch(ctx, ch.ID, []model.Message{
		{MessageID: 5, Views: 100, EngagementCount: 10, EngagementRate: 10},
	})
	if created != 1 || updated != 0 || skipped != 0 {
		t.Fatalf("first pass = (%d, %d, %d), want (1, 0, 0)", created, updated, skipped)
	}

	created, updated, skipped = messages.UpsertBatch(ctx, ch.ID, []model.Message{
		{MessageID: 5, Views: 250, EngagementCount: 25, EngagementRate: 10},
	})
	if created != 0 || updated != 1 || skipped != 0 {
		t.Fatalf("second pass = (%d, %d, %d), want (0, 1, 0)", created, updated, skipped)
	}

	rows, err := messages.ListForChannel(ctx, ch.ID, 0, 10, "date", "desc")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 after re-scrape", len(rows))
	}
	if rows[0].Views != 250 {
		t.Fatalf("Views = %d, want the re-scraped value 250", rows[0].Views)
	}
}

func TestListForChannelOrdering(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	ch := mustCreateChannel(t, channels, "order", -100)
	ctx := context.Background()

	messages.UpsertBatch(ctx, ch.ID, []model.Message{
		{MessageID: 1, Views: 10},
		{MessageID: 2, Views: 30},
		{MessageID: 3, Views: 20},
	})

	rows, err := messages.ListForChannel(ctx, ch.ID, 0, 10, "views", "desc")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].MessageID != 2 || rows[2].MessageID != 1 {
		t.Fatalf("views desc order = [%d %d %d], want [2 3 1]",
			rows[0].MessageID, rows[1].MessageID, rows[2].MessageID)
	}

	// Unknown sort column falls back to date instead of erroring.
	if _, err := messages.ListForChannel(ctx, ch.ID, 0, 10, "evil; DROP TABLE", "desc"); err != nil {
		t.Fatalf("fallback sort: %v", err)
	}
}

func TestListWithStatsEmptyChannel(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	mustCreateChannel(t, channels, "empty", -100)

	rows, err := channels.ListWithStats(context.Background(), nil, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].MessagesCount != 0 {
		t.Fatalf("MessagesCount = %d, want 0", rows[0].MessagesCount)
	}
	if rows[0].AvgEngagementRate != nil || rows[0].AvgViews != nil {
		t.Fatal("averages should be nil for a channel without messages")
	}
}

func TestListWithStatsAverages(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	ch := mustCreateChannel(t, channels, "avg", -100)
	ctx := context.Background()

	older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	messages.UpsertBatch(ctx, ch.ID, []model.Message{
		{MessageID: 1, Date: &older, Views: 100, EngagementRate: 10},
		{MessageID: 2, Date: &newer, Views: 200, EngagementRate: 20},
		{MessageID: 3, Views: 0, EngagementRate: 0}, // excluded from averages
	})

	rows, err := channels.ListWithStats(ctx, nil, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].MessagesCount != 3 {
		t.Fatalf("MessagesCount = %d, want 3", rows[0].MessagesCount)
	}
	if rows[0].AvgViews == nil || *rows[0].AvgViews != 150 {
		t.Fatalf("AvgViews = %v, want 150 over viewed messages only", rows[0].AvgViews)
	}
	if rows[0].AvgEngagementRate == nil || *rows[0].AvgEngagementRate != 15 {
		t.Fatalf("AvgEngagementRate = %v, want 15", rows[0].AvgEngagementRate)
	}
	if rows[0].LatestMessageDate == nil || !rows[0].LatestMessageDate.Equal(newer) {
		t.Fatalf("LatestMessageDate = %v, want %v", rows[0].LatestMessageDate, newer)
	}
}

func TestAggTimeScan(t *testing.T) {
	ref := time.Date(2025, 7, 1, 8, 15, 30, 0, time.UTC)

	var fromString aggTime
	if err := fromString.Scan("2025-07-01T08:15:30Z"); err != nil {
		t.Fatal(err)
	}
	if fromString.Time == nil || !fromString.Time.Equal(ref) {
		t.Fatalf("Scan(string) = %v, want %v", fromString.Time, ref)
	}

	var fromSpaced aggTime
	if err := fromSpaced.Scan("2025-07-01 08:15:30+00:00"); err != nil {
		t.Fatal(err)
	}
	if fromSpaced.Time == nil || !fromSpaced.Time.Equal(ref) {
		t.Fatalf("Scan(spaced string) = %v, want %v", fromSpaced.Time, ref)
	}

	var fromTime aggTime
	if err := fromTime.Scan(ref); err != nil {
		t.Fatal(err)
	}
	if fromTime.Time == nil || !fromTime.Time.Equal(ref) {
		t.Fatalf("Scan(time.Time) = %v, want %v", fromTime.Time, ref)
	}

	var fromNil aggTime
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if fromNil.Time != nil {
		t.Fatalf("Scan(nil) = %v, want nil", fromNil.Time)
	}

	var garbage aggTime
	if err := garbage.Scan("not a timestamp"); err == nil {
		t.Fatal("Scan accepted garbage input")
	}
}

func TestGlobalStats(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	stats := NewStatsService(db)
	ctx := context.Background()

	a := mustCreateChannel(t, channels, "a", -100)
	b := mustCreateChannel(t, channels, "b", -200)
	if _, err := channels.SoftDelete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	messages.UpsertBatch(ctx, a.ID, []model.Message{
		{MessageID: 1, Views: 10},
		{MessageID: 2, Views: 20},
	})
	if err := channels.TouchLastScraped(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	got, err := stats.Global(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalChannels != 2 || got.ActiveChannels != 1 {
		t.Fatalf("channels = (%d active %d), want (2 active 1)", got.TotalChannels, got.ActiveChannels)
	}
	if got.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", got.TotalMessages)
	}
	if got.LastScrapeTime == nil {
		t.Fatal("LastScrapeTime = nil, want the touched timestamp")
	}
}

func TestPerChannelStats(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	messages := NewMessageService(db, zap.NewNop())
	stats := NewStatsService(db)
	ctx := context.Background()

	ch := mustCreateChannel(t, channels, "stats", -100)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	messages.UpsertBatch(ctx, ch.ID, []model.Message{
		{MessageID: 1, Date: &date, Views: 100, TotalReactions: 4, Forwards: 2, Replies: 2, EngagementCount: 8, EngagementRate: 8},
		{MessageID: 2, Views: 300, TotalReactions: 2, Forwards: 1, Replies: 1, EngagementCount: 4, EngagementRate: 2},
	})

	got, err := stats.PerChannel(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("channels = %d, want 1", len(got))
	}
	s := got[0]
	if s.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", s.TotalMessages)
	}
	if s.AvgViews != 200 {
		t.Fatalf("AvgViews = %v, want 200", s.AvgViews)
	}
	if s.AvgEngagementCount != 6 {
		t.Fatalf("AvgEngagementCount = %v, want 6", s.AvgEngagementCount)
	}
	if s.AvgEngagementRate != 5 {
		t.Fatalf("AvgEngagementRate = %v, want 5", s.AvgEngagementRate)
	}
	if s.LatestMessageDate == nil || !s.LatestMessageDate.Equal(date) {
		t.Fatalf("LatestMessageDate = %v, want %v", s.LatestMessageDate, date)
	}
}

func TestListActiveByIDsSkipsInactive(t *testing.T) {
	db := setupTestDB(t)
	channels := NewChannelService(db)
	ctx := context.Background()

	a := mustCreateChannel(t, channels, "a", -100)
	b := mustCreateChannel(t, channels, "b", -200)
	if _, err := channels.SoftDelete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	got, err := channels.ListActiveByIDs(ctx, []int64{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("active subset = %v, want only channel %d", got, a.ID)
	}
}
