// Package store persists raw posts in SQLite and serves the date-window
// batch fetches the analysis pipeline runs on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/threadsradar/threads-radar/internal/models"
)

// Store wraps the SQLite raw post table.
type Store struct {
	db *sqlx.DB
}

// BatchResult counts the outcome of a batch upsert; one bad row never
// aborts the rest of the batch.
type BatchResult struct {
	Inserted int
	Updated  int
	Failed   int
}

// Stats summarizes the raw post table. The post time bounds come back as
// text because SQLite drops the column type through MIN/MAX aggregates.
type Stats struct {
	TotalPosts        int     `db:"total_posts"`
	UniqueUsers       int     `db:"unique_users"`
	TotalInteractions int     `db:"total_interactions"`
	EarliestPost      *string `db:"earliest_post"`
	LatestPost        *string `db:"latest_post"`
}

// New opens the SQLite database and ensures the schema exists.
func New(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPost writes one raw post; a repeated post_id refreshes the counters
// and scraped_at but never rewrites identity fields.
func (s *Store) UpsertPost(ctx context.Context, p models.RawPost) error {
	if p.PostID == "" {
		return errors.New("post_id cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_posts (post_id, username, content, likes, replies, reposts, timestamp, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(post_id) DO UPDATE SET
			likes = excluded.likes,
			replies = excluded.replies,
			reposts = excluded.reposts,
			scraped_at = excluded.scraped_at
	`, p.PostID, p.Username, p.Content, p.Likes, p.Replies, p.Reposts,
		p.Timestamp.UTC(), p.ScrapedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", p.PostID, err)
	}
	return nil
}

// UpsertPosts writes a batch, counting inserts versus refreshes of already
// known posts. Row failures are counted, not propagated.
func (s *Store) UpsertPosts(ctx context.Context, posts []models.RawPost) (BatchResult, error) {
	var res BatchResult
	if len(posts) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.PostID != "" {
			ids = append(ids, p.PostID)
		}
	}
	existing, err := s.ExistingIDs(ctx, ids)
	if err != nil {
		return res, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}

	for _, p := range posts {
		if err := s.UpsertPost(ctx, p); err != nil {
			res.Failed++
			continue
		}
		if _, ok := known[p.PostID]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
	}
	return res, nil
}

// ExistingIDs returns the subset of ids already present in the table.
func (s *Store) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT post_id FROM raw_posts WHERE post_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build id query: %w", err)
	}

	var out []string
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select existing ids: %w", err)
	}
	return out, nil
}

// ListByDateRange returns posts with timestamp in [start, end], oldest
// first. This is the pipeline's batch fetch.
func (s *Store) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.RawPost, error) {
	var posts []models.RawPost
	err := s.db.SelectContext(ctx, &posts, `
		SELECT post_id, username, content, likes, replies, reposts, timestamp, scraped_at
		FROM raw_posts
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list posts by date range: %w", err)
	}
	return posts, nil
}

// ListByUsername returns a user's most recent posts.
func (s *Store) ListByUsername(ctx context.Context, username string, limit int) ([]models.RawPost, error) {
	if limit <= 0 {
		limit = 100
	}
	var posts []models.RawPost
	err := s.db.SelectContext(ctx, &posts, `
		SELECT post_id, username, content, likes, replies, reposts, timestamp, scraped_at
		FROM raw_posts
		WHERE username = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts by username: %w", err)
	}
	return posts, nil
}

// Count returns the number of stored posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM raw_posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes posts whose timestamp is older than maxAge.
func (s *Store) DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM raw_posts WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old posts: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetStats aggregates table-level statistics for operational visibility.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			COUNT(*) AS total_posts,
			COUNT(DISTINCT username) AS unique_users,
			COALESCE(SUM(likes + replies + reposts), 0) AS total_interactions,
			MIN(timestamp) AS earliest_post,
			MAX(timestamp) AS latest_post
		FROM raw_posts
	`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	return &st, nil
}
