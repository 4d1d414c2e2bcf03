// Package elasticsearch persists the three derived output streams (post
// metrics, topic summaries, keyword trends) and serves the API's queries
// over them.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/threadsradar/threads-radar/internal/models"
)

// Client wraps go-elasticsearch with helpers tailored to the derived
// indexes. Index names share a configurable prefix.
type Client struct {
	es     *elasticsearch.Client
	prefix string
	log    *slog.Logger
}

// TopicDoc is a stored topic summary. Topics have no natural key; every
// run inserts fresh documents.
type TopicDoc struct {
	models.TopicSummary
	ProcessedAt time.Time `json:"processed_at"`
}

// TrendDoc is a stored keyword trend, upserted by its (keyword, date) key.
type TrendDoc struct {
	models.KeywordTrend
	ProcessedAt time.Time `json:"processed_at"`
}

// New instantiates the Elasticsearch client.
func New(addr, prefix string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, prefix: prefix, log: logger}, nil
}

func (c *Client) metricsIndex() string { return c.prefix + "_post_metrics" }
func (c *Client) topicsIndex() string  { return c.prefix + "_topic_summaries" }
func (c *Client) trendsIndex() string  { return c.prefix + "_keyword_trends" }

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// Health pings the cluster to ensure connectivity.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// UpsertPostMetrics writes one per-post metrics record, keyed by post_id so
// reruns overwrite.
func (c *Client) UpsertPostMetrics(ctx context.Context, m models.PostMetrics) error {
	return c.index(ctx, c.metricsIndex(), m.PostID, m)
}

// InsertTopicSummary writes one topic summary under a fresh document ID.
func (c *Client) InsertTopicSummary(ctx context.Context, t models.TopicSummary, processedAt time.Time) error {
	doc := TopicDoc{TopicSummary: t, ProcessedAt: processedAt}
	return c.index(ctx, c.topicsIndex(), uuid.NewString(), doc)
}

// UpsertKeywordTrend writes one keyword trend keyed by "keyword|date".
func (c *Client) UpsertKeywordTrend(ctx context.Context, kt models.KeywordTrend, processedAt time.Time) error {
	doc := TrendDoc{KeywordTrend: kt, ProcessedAt: processedAt}
	return c.index(ctx, c.trendsIndex(), kt.Keyword+"|"+kt.Date, doc)
}

func (c *Client) index(ctx context.Context, index, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// SearchHotPosts returns post metrics sorted by heat density, hottest
// first, optionally bounded by processed_at.
func (c *Client) SearchHotPosts(ctx context.Context, size int, start, end *time.Time) ([]models.PostMetrics, error) {
	var out []models.PostMetrics
	err := c.search(ctx, c.metricsIndex(), searchBody(size, "heat_density", nil, start, end), &out)
	return out, err
}

// SearchTopics returns topic summaries sorted by trending score.
func (c *Client) SearchTopics(ctx context.Context, size int, start, end *time.Time) ([]TopicDoc, error) {
	var out []TopicDoc
	err := c.search(ctx, c.topicsIndex(), searchBody(size, "trending_score", nil, start, end), &out)
	return out, err
}

// SearchTrends returns keyword trends sorted by momentum, optionally
// filtered to one keyword.
func (c *Client) SearchTrends(ctx context.Context, keyword string, size int, start, end *time.Time) ([]TrendDoc, error) {
	var filters []map[string]any
	if keyword != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"keyword": keyword},
		})
	}
	var out []TrendDoc
	err := c.search(ctx, c.trendsIndex(), searchBody(size, "momentum_score", filters, start, end), &out)
	return out, err
}

func searchBody(size int, sortField string, filters []map[string]any, start, end *time.Time) map[string]any {
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}

	if start != nil || end != nil {
		rangeQuery := map[string]any{}
		if start != nil {
			rangeQuery["gte"] = start.UTC().Format(time.RFC3339)
		}
		if end != nil {
			rangeQuery["lte"] = end.UTC().Format(time.RFC3339)
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"processed_at": rangeQuery},
		})
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	} else {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}

	return map[string]any{
		"size":             size,
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
		"sort": []map[string]any{
			{sortField: map[string]any{"order": "desc"}},
		},
	}
}

// search executes a query and decodes hit sources into dest, which must be
// a pointer to a slice.
func (c *Client) search(ctx context.Context, index string, body map[string]any, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("search %s failed: %s", index, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}

	sources := make([]json.RawMessage, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	joined, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("re-marshal hits: %w", err)
	}
	if err := json.Unmarshal(joined, dest); err != nil {
		return fmt.Errorf("decode hits: %w", err)
	}
	return nil
}

// DeleteOlderThan removes derived documents older than maxAge from all
// three indexes using batched delete-by-query.
func (c *Client) DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for _, index := range []string{c.metricsIndex(), c.topicsIndex(), c.trendsIndex()} {
		for {
			body := map[string]any{
				"query": map[string]any{
					"range": map[string]any{
						"processed_at": map[string]any{
							"lte": cutoff,
						},
					},
				},
			}

			payload, err := json.Marshal(body)
			if err != nil {
				return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
			}

			res, err := c.es.DeleteByQuery(
				[]string{index},
				bytes.NewReader(payload),
				c.es.DeleteByQuery.WithContext(ctx),
				c.es.DeleteByQuery.WithWaitForCompletion(true),
				c.es.DeleteByQuery.WithConflicts("proceed"),
				c.es.DeleteByQuery.WithScrollSize(batchSize),
			)
			if err != nil {
				return totalDeleted, fmt.Errorf("delete by query %s: %w", index, err)
			}

			if res.IsError() {
				data, _ := io.ReadAll(res.Body)
				res.Body.Close()
				return totalDeleted, fmt.Errorf("delete by query %s failed: %s", index, strings.TrimSpace(string(data)))
			}

			var parsed struct {
				Deleted int64 `json:"deleted"`
			}
			if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
				res.Body.Close()
				return totalDeleted, fmt.Errorf("decode delete response: %w", err)
			}
			res.Body.Close()

			totalDeleted += parsed.Deleted

			if parsed.Deleted < int64(batchSize) {
				break
			}
		}
	}

	return totalDeleted, nil
}
