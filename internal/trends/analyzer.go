// Package trends computes time-windowed keyword momentum over an enriched
// post batch: candidate keywords from TF-IDF, daily occurrence grouping,
// and a growth-only momentum score.
package trends

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/sentiment"
	"github.com/threadsradar/threads-radar/internal/textfeat"
)

const (
	candidateTerms = 20
	dateLayout     = "2006-01-02"
)

// Config carries the trend analysis knobs.
type Config struct {
	KeywordMinFreq     int // keywords matched by fewer posts are dropped
	MomentumWindowDays int // lookback window for the momentum score
}

// Analyzer runs the keyword trend step.
type Analyzer struct {
	ext  *textfeat.Extractor
	sent sentiment.Analyzer
	cfg  Config
	log  *slog.Logger
}

// New builds a trend analyzer. A nil sentiment analyzer degrades to neutral.
func New(ext *textfeat.Extractor, sent sentiment.Analyzer, cfg Config, log *slog.Logger) *Analyzer {
	if sent == nil {
		sent = sentiment.Neutral{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.KeywordMinFreq < 1 {
		cfg.KeywordMinFreq = 1
	}
	if cfg.MomentumWindowDays < 2 {
		cfg.MomentumWindowDays = 3
	}
	return &Analyzer{ext: ext, sent: sent, cfg: cfg, log: log}
}

// Analyze produces one KeywordTrend per (keyword, UTC day) observed in the
// batch. An empty batch, or a batch with no extractable keywords, yields an
// empty list. Per-keyword work is independent and fans out.
func (a *Analyzer) Analyze(ctx context.Context, posts []models.EnrichedPost) ([]models.KeywordTrend, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.Content
	}

	weights := a.ext.ExtractKeywords(texts, textfeat.DefaultMaxFeatures)
	if len(weights) > candidateTerms {
		weights = weights[:candidateTerms]
	}
	if len(weights) == 0 {
		return nil, nil
	}

	results := make([][]models.KeywordTrend, len(weights))
	g, _ := errgroup.WithContext(ctx)
	for i, w := range weights {
		i, w := i, w
		g.Go(func() error {
			results[i] = a.keywordTrends(w.Term, posts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var trends []models.KeywordTrend
	for _, r := range results {
		trends = append(trends, r...)
	}

	a.log.Info("keyword trend analysis finished",
		slog.Int("candidates", len(weights)), slog.Int("trend_records", len(trends)))
	return trends, nil
}

// keywordTrends builds the per-day records for one keyword, or nil when too
// few posts mention it.
func (a *Analyzer) keywordTrends(keyword string, posts []models.EnrichedPost) []models.KeywordTrend {
	needle := strings.ToLower(keyword)

	var matched []models.EnrichedPost
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Content), needle) {
			matched = append(matched, p)
		}
	}
	if len(matched) < a.cfg.KeywordMinFreq {
		return nil
	}

	byDay := make(map[string][]models.EnrichedPost)
	for _, p := range matched {
		byDay[day(p.Timestamp)] = append(byDay[day(p.Timestamp)], p)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	counts := make(map[string]int, len(byDay))
	for d, ps := range byDay {
		counts[d] = len(ps)
	}

	trends := make([]models.KeywordTrend, 0, len(days))
	for _, d := range days {
		dayPosts := byDay[d]

		var interactions int
		texts := make([]string, len(dayPosts))
		for i, p := range dayPosts {
			interactions += p.TotalInteractions
			texts[i] = p.Content
		}

		trends = append(trends, models.KeywordTrend{
			Keyword:           keyword,
			Date:              d,
			PostCount:         len(dayPosts),
			TotalInteractions: interactions,
			AverageSentiment:  sentiment.MeanCompound(a.sent, texts),
			MomentumScore:     momentum(counts, d, a.cfg.MomentumWindowDays),
		})
	}
	return trends
}

// momentum is the daily growth rate of a keyword's occurrence count over
// the lookback window ending at endDay, inclusive. Fewer than two distinct
// days of data score 0. Decline is reported as 0: the signed rate is
// computed but clamped, tracking growth only.
func momentum(dailyCounts map[string]int, endDay string, windowDays int) float64 {
	end, err := time.Parse(dateLayout, endDay)
	if err != nil {
		return 0
	}
	start := end.AddDate(0, 0, -windowDays)

	var days []string
	for d := range dailyCounts {
		ts, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		if !ts.Before(start) && !ts.After(end) {
			days = append(days, d)
		}
	}
	if len(days) < 2 {
		return 0
	}
	sort.Strings(days)

	first := dailyCounts[days[0]]
	last := dailyCounts[days[len(days)-1]]
	rate := float64(last-first) / float64(len(days)-1)
	if rate < 0 {
		return 0
	}
	return rate
}

func day(ts time.Time) string {
	return ts.UTC().Format(dateLayout)
}
