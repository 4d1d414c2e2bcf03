// Package cluster groups an enriched post batch into named topics: TF-IDF
// vectorization, seeded k-means, centroid keyword ranking, and per-topic
// aggregation.
package cluster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/sentiment"
	"github.com/threadsradar/threads-radar/internal/textfeat"
)

// Clustering is deterministic across runs: fixed seed, fixed restart count.
const (
	seed     = 42
	restarts = 10
	maxIter  = 100

	vectorMaxFeatures = 200
	vectorMinDF       = 2
	vectorMaxDF       = 0.8

	topicKeywordDims = 10
	maxTopicKeywords = 5
)

// Config carries the clustering policy knobs.
type Config struct {
	MinInteractions int // posts below this never enter clustering
	MaxTopics       int
}

// Clusterer runs the topic clustering step.
type Clusterer struct {
	tok  *textfeat.Tokenizer
	sent sentiment.Analyzer
	cfg  Config
	log  *slog.Logger
}

// New builds a clusterer. A nil sentiment analyzer degrades to neutral.
func New(tok *textfeat.Tokenizer, sent sentiment.Analyzer, cfg Config, log *slog.Logger) *Clusterer {
	if sent == nil {
		sent = sentiment.Neutral{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MinInteractions < 0 {
		cfg.MinInteractions = 0
	}
	if cfg.MaxTopics < 2 {
		cfg.MaxTopics = 2
	}
	return &Clusterer{tok: tok, sent: sent, cfg: cfg, log: log}
}

// Cluster groups the batch into topics. Batches with fewer than 5 posts, or
// fewer than 3 posts above the interaction threshold, yield an empty list
// with no error. Internal failures return an error alongside the empty list
// so the caller can record them; nothing panics.
func (c *Clusterer) Cluster(ctx context.Context, posts []models.EnrichedPost) ([]models.TopicSummary, error) {
	if len(posts) < 5 {
		c.log.Debug("batch too small for clustering", slog.Int("posts", len(posts)))
		return nil, nil
	}

	filtered := make([]models.EnrichedPost, 0, len(posts))
	for _, p := range posts {
		if p.TotalInteractions >= c.cfg.MinInteractions {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) < 3 {
		c.log.Debug("too few posts above interaction threshold",
			slog.Int("filtered", len(filtered)), slog.Int("threshold", c.cfg.MinInteractions))
		return nil, nil
	}

	// Rows stay aligned with filtered posts; empty docs become zero rows.
	docs := make([][]string, len(filtered))
	for i, p := range filtered {
		docs[i] = c.tok.Tokenize(p.Content)
	}

	matrix, err := textfeat.FitTransform(textfeat.VectorizerConfig{
		MaxFeatures: vectorMaxFeatures,
		MinDF:       vectorMinDF,
		MaxDF:       vectorMaxDF,
		NGramMax:    2,
	}, docs)
	if err != nil {
		return nil, fmt.Errorf("vectorize batch: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := min(c.cfg.MaxTopics, max(2, len(filtered)/10))
	result := runKMeans(matrix.Rows, k, seed, restarts, maxIter)
	if result.labels == nil {
		return nil, fmt.Errorf("kmeans produced no assignment for k=%d", k)
	}

	// Per-cluster aggregation is independent work over the shared immutable
	// batch; fan out with one output slot per cluster.
	summaries := make([]*models.TopicSummary, k)
	g, _ := errgroup.WithContext(ctx)
	for clusterID := 0; clusterID < k; clusterID++ {
		clusterID := clusterID
		g.Go(func() error {
			var members []models.EnrichedPost
			for i, label := range result.labels {
				if label == clusterID {
					members = append(members, filtered[i])
				}
			}
			if len(members) < 2 {
				return nil
			}

			keywords := centroidKeywords(result.centers[clusterID], matrix.Terms)
			if len(keywords) == 0 {
				return nil
			}

			summaries[clusterID] = c.summarize(clusterID+1, keywords, members)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	topics := make([]models.TopicSummary, 0, k)
	for _, s := range summaries {
		if s != nil {
			topics = append(topics, *s)
		}
	}
	c.log.Info("clustering finished",
		slog.Int("posts", len(filtered)), slog.Int("k", k), slog.Int("topics", len(topics)))
	return topics, nil
}

// centroidKeywords ranks the centroid's ten heaviest dimensions and keeps
// the positively weighted terms, heaviest first.
func centroidKeywords(center []float64, terms []string) []string {
	idx := make([]int, len(center))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return center[idx[a]] > center[idx[b]]
	})

	var keywords []string
	for _, i := range idx {
		if len(keywords) == topicKeywordDims {
			break
		}
		if center[i] <= 0 {
			break
		}
		keywords = append(keywords, terms[i])
	}
	return keywords
}

func (c *Clusterer) summarize(topicID int, keywords []string, members []models.EnrichedPost) *models.TopicSummary {
	var interactions int
	var heatSum float64
	texts := make([]string, len(members))
	for i, p := range members {
		interactions += p.TotalInteractions
		heatSum += p.HeatDensity
		texts[i] = p.Content
	}

	if len(keywords) > maxTopicKeywords {
		keywords = keywords[:maxTopicKeywords]
	}

	return &models.TopicSummary{
		TopicID:            topicID,
		TopicKeywords:      keywords,
		TopicName:          name(keywords),
		PostCount:          len(members),
		AverageHeatDensity: heatSum / float64(len(members)),
		TotalInteractions:  interactions,
		DominantSentiment:  sentiment.Classify(sentiment.MeanCompound(c.sent, texts)),
		TrendingScore:      trendingScore(members),
	}
}

// trendingScore combines interaction velocity over the cluster's time span
// with mean freshness, clamped into [0,1]. Degenerate clusters score 0.
func trendingScore(members []models.EnrichedPost) float64 {
	if len(members) < 2 {
		return 0
	}

	sorted := make([]models.EnrichedPost, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)
	if span <= 0 {
		return 0
	}

	var interactions int
	var freshSum float64
	for _, p := range sorted {
		interactions += p.TotalInteractions
		freshSum += p.FreshnessScore
	}

	velocity := float64(interactions) / span.Hours()
	score := velocity * (freshSum / float64(len(sorted))) / 100
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
