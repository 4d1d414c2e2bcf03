package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/threadsradar/threads-radar/internal/config"
	"github.com/threadsradar/threads-radar/internal/dedupe"
	"github.com/threadsradar/threads-radar/internal/logger"
	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/store"
)

// rawPostPayload is the scraper's wire format. Counters may be absent and
// are coerced to zero; content may be absent and becomes the empty string.
type rawPostPayload struct {
	PostID    string `json:"post_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	Replies   int    `json:"replies"`
	Reposts   int    `json:"reposts"`
	Timestamp string `json:"timestamp"`
	ScrapedAt string `json:"scraped_at"`
}

type postStore interface {
	UpsertPost(ctx context.Context, p models.RawPost) error
}

func main() {
	_ = godotenv.Load()

	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	db, err := store.New(cfg.SQLitePath)
	if err != nil {
		log.Error("open post store", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, db, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			dlqMsg := kafka.Message{
				Value: msg.Value,
				Headers: append(msg.Headers,
					kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
					kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
					kafka.Header{Key: "error", Value: []byte(err.Error())},
					kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
				),
			}

			// Retry DLQ write with exponential backoff
			dlqSuccess := false
			for attempt := 0; attempt < 5; attempt++ {
				if dlqErr := dlqWriter.WriteMessages(ctx, dlqMsg); dlqErr == nil {
					dlqSuccess = true
					log.Info("message sent to DLQ",
						slog.Int("partition", msg.Partition),
						slog.Int64("offset", msg.Offset),
						slog.Int("attempt", attempt+1),
					)
					break
				} else {
					backoff := time.Duration(1<<uint(attempt)) * time.Second
					log.Warn("DLQ write failed, retrying",
						slog.Any("err", dlqErr),
						slog.Int("attempt", attempt+1),
						slog.Duration("backoff", backoff),
					)
					select {
					case <-time.After(backoff):
						// Continue to next attempt
					case <-ctx.Done():
						log.Info("context canceled during DLQ retry")
						return
					}
				}
			}

			// Only commit if DLQ write succeeded; otherwise skip commit and reprocess on restart
			if dlqSuccess {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed message to dlq", slog.Any("err", err))
				}
			} else {
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func processMessage(ctx context.Context, log *slog.Logger, db postStore, cache *dedupe.Cache, msg kafka.Message) error {
	var payload rawPostPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		return errors.New("payload has no username")
	}

	ts := parseTimestamp(payload.Timestamp)
	if ts.IsZero() {
		return errors.New("payload has no parseable timestamp")
	}

	scrapedAt := parseTimestamp(payload.ScrapedAt)
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	post := models.RawPost{
		PostID:    strings.TrimSpace(payload.PostID),
		Username:  username,
		Content:   payload.Content,
		Likes:     max(payload.Likes, 0),
		Replies:   max(payload.Replies, 0),
		Reposts:   max(payload.Reposts, 0),
		Timestamp: ts.UTC(),
		ScrapedAt: scrapedAt,
	}

	// Stable fallback ID so re-scrapes of the same post dedupe correctly.
	if post.PostID == "" {
		post.PostID = buildPostID(post.Username, post.Content, post.Timestamp)
	}

	if cache.IsSeen(post.PostID) {
		log.Debug("duplicate post", slog.String("id", post.PostID))
		return nil
	}

	if err := db.UpsertPost(ctx, post); err != nil {
		return err
	}

	cache.MarkSeen(post.PostID)
	log.Info("stored post",
		slog.String("id", post.PostID),
		slog.String("username", post.Username),
	)
	return nil
}

// buildPostID hashes the most stable fields to form deterministic IDs.
func buildPostID(username, content string, ts time.Time) string {
	s := sha1.Sum([]byte(username + "|" + content + "|" + ts.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(s[:])
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
