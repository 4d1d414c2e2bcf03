package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "radar_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rawPost(id, user string, likes int, ts time.Time) models.RawPost {
	return models.RawPost{
		PostID:    id,
		Username:  user,
		Content:   "content for " + id,
		Likes:     likes,
		Timestamp: ts,
		ScrapedAt: ts.Add(time.Minute),
	}
}

func TestUpsertPostInsertAndRefresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertPost(ctx, rawPost("p1", "alice", 10, ts)))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Same post scraped again with fresher counters.
	updated := rawPost("p1", "alice", 25, ts)
	require.NoError(t, s.UpsertPost(ctx, updated))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	posts, err := s.ListByUsername(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 25, posts[0].Likes)
}

func TestUpsertPostRejectsEmptyID(t *testing.T) {
	s := newTestStore(t)
	require.Error(t, s.UpsertPost(context.Background(), models.RawPost{Username: "alice"}))
}

func TestUpsertPostsCountsInsertsAndUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.UpsertPosts(ctx, []models.RawPost{
		rawPost("p1", "alice", 1, ts),
		rawPost("p2", "bob", 2, ts),
	})
	require.NoError(t, err)
	require.Equal(t, store.BatchResult{Inserted: 2}, first)

	second, err := s.UpsertPosts(ctx, []models.RawPost{
		rawPost("p2", "bob", 5, ts),
		rawPost("p3", "carol", 3, ts),
		{Username: "no-id"},
	})
	require.NoError(t, err)
	require.Equal(t, store.BatchResult{Inserted: 1, Updated: 1, Failed: 1}, second)
}

func TestExistingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, s.UpsertPost(ctx, rawPost("p1", "alice", 1, ts)))
	require.NoError(t, s.UpsertPost(ctx, rawPost("p2", "bob", 1, ts)))

	got, err := s.ExistingIDs(ctx, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"p1", "p2"}, got)

	got, err = s.ExistingIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestListByDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		p := rawPost(fmt.Sprintf("p%d", i), "alice", i, base.AddDate(0, 0, i))
		require.NoError(t, s.UpsertPost(ctx, p))
	}

	posts, err := s.ListByDateRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, posts, 3)

	// Oldest first.
	for i := 1; i < len(posts); i++ {
		require.False(t, posts[i].Timestamp.Before(posts[i-1].Timestamp))
	}
	require.Equal(t, "p1", posts[0].PostID)
	require.Equal(t, "p3", posts[2].PostID)
}

func TestListByUsernameNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertPost(ctx, rawPost("old", "alice", 1, base)))
	require.NoError(t, s.UpsertPost(ctx, rawPost("new", "alice", 2, base.AddDate(0, 0, 2))))
	require.NoError(t, s.UpsertPost(ctx, rawPost("other", "bob", 3, base)))

	posts, err := s.ListByUsername(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "new", posts[0].PostID)
	require.Equal(t, "old", posts[1].PostID)
}

func TestDeleteOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertPost(ctx, rawPost("ancient", "alice", 1, now.AddDate(0, 0, -40))))
	require.NoError(t, s.UpsertPost(ctx, rawPost("recent", "alice", 1, now.Add(-time.Hour))))

	deleted, err := s.DeleteOlderThan(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	empty, err := s.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, empty.TotalPosts)
	require.Nil(t, empty.EarliestPost)

	p1 := rawPost("p1", "alice", 10, base)
	p1.Replies = 2
	p1.Reposts = 1
	require.NoError(t, s.UpsertPost(ctx, p1))
	require.NoError(t, s.UpsertPost(ctx, rawPost("p2", "bob", 5, base.AddDate(0, 0, 1))))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalPosts)
	require.Equal(t, 2, stats.UniqueUsers)
	require.Equal(t, 18, stats.TotalInteractions)
	require.NotNil(t, stats.EarliestPost)
	require.NotNil(t, stats.LatestPost)
}
