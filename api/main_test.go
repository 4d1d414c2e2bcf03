package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/threadsradar/threads-radar/internal/config"
	"github.com/threadsradar/threads-radar/internal/logger"
	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/store"
)

func TestParseTime(t *testing.T) {
	require.Nil(t, parseTime(""))
	require.Nil(t, parseTime("   "))
	require.Nil(t, parseTime("june first"))

	ts := parseTime("2025-06-01T12:00:00Z")
	require.NotNil(t, ts)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), *ts)
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "empty uses fallback", raw: "", want: 20},
		{name: "not a number uses fallback", raw: "abc", want: 20},
		{name: "zero uses fallback", raw: "0", want: 20},
		{name: "negative uses fallback", raw: "-5", want: 20},
		{name: "valid passes through", raw: "42", want: 42},
		{name: "above max clamps", raw: "500", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clampInt(tt.raw, 20, 100))
		})
	}
}

func newTestServer(t *testing.T) (*server, *store.Store) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.API{DefaultPage: 20, MaxPage: 100}
	return &server{log: logger.New("api-test"), cfg: cfg, db: db}, db
}

func TestHandleStats(t *testing.T) {
	srv, db := newTestServer(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertPost(context.Background(), models.RawPost{
		PostID: "p1", Username: "alice", Likes: 7, Timestamp: ts, ScrapedAt: ts,
	}))

	rec := httptest.NewRecorder()
	srv.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["total_posts"])
	require.EqualValues(t, 1, body["unique_users"])
	require.EqualValues(t, 7, body["total_interactions"])
}

func TestHandleUserPosts(t *testing.T) {
	srv, db := newTestServer(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertPost(context.Background(), models.RawPost{
		PostID: "p1", Username: "alice", Content: "hi", Timestamp: ts, ScrapedAt: ts,
	}))

	r := chi.NewRouter()
	r.Get("/users/{username}/posts", srv.handleUserPosts)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/alice/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Posts []models.RawPost `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	require.Equal(t, "p1", body.Posts[0].PostID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/bob/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
