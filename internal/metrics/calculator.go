// Package metrics derives per-post quality signals from raw engagement
// counters: heat density, freshness, engagement rate, and viral potential.
// All transforms are deterministic; batch-relative normalization is done as
// an explicit reduce (find the batch max) then map pass so the per-post math
// stays pure.
package metrics

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/threadsradar/threads-radar/internal/models"
)

// Engagement weighting: replies signal deeper engagement than likes, reposts
// sit between.
const (
	likeWeight   = 1.0
	replyWeight  = 2.0
	repostWeight = 1.5

	decayRate = 0.1
	decayUnit = 24.0 // hours
)

// Calculator computes the per-post metric stages over one immutable batch.
type Calculator struct {
	log *slog.Logger
}

// NewCalculator builds a calculator. A nil logger disables logging.
func NewCalculator(log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calculator{log: log}
}

// Enrich runs every metric stage over the batch relative to now. An empty
// batch returns nil. Posts with an unparseable (zero) timestamp are scored
// zero and excluded from the normalization aggregates, but never abort the
// batch.
func (c *Calculator) Enrich(now time.Time, raw []models.RawPost) []models.EnrichedPost {
	if len(raw) == 0 {
		return nil
	}

	posts := make([]models.EnrichedPost, len(raw))
	for i, p := range raw {
		posts[i] = newEnriched(now, p)
		if p.Timestamp.IsZero() {
			c.log.Warn("post has no usable timestamp, excluded from normalization",
				slog.String("post_id", p.PostID))
		}
	}

	c.applyHeatDensity(posts)
	applyFreshness(posts)
	applyEngagementRate(posts)
	c.applyViralPotential(posts)
	return posts
}

// newEnriched coerces one raw post and fills the time-derived base fields.
// Negative counters are clamped to zero before any stage sees them.
func newEnriched(now time.Time, p models.RawPost) models.EnrichedPost {
	p.Likes = max(p.Likes, 0)
	p.Replies = max(p.Replies, 0)
	p.Reposts = max(p.Reposts, 0)

	e := models.EnrichedPost{
		RawPost:           p,
		TotalInteractions: p.Likes + p.Replies + p.Reposts,
	}
	if !p.Timestamp.IsZero() {
		e.HoursSincePost = now.Sub(p.Timestamp).Hours()
	}
	return e
}

// applyHeatDensity computes the time-decayed engagement score and
// normalizes the batch so the hottest post lands exactly on 100. An
// all-zero batch stays all-zero.
func (c *Calculator) applyHeatDensity(posts []models.EnrichedPost) {
	if len(posts) == 0 {
		return
	}

	raws := make([]float64, len(posts))
	var maxRaw float64
	for i, p := range posts {
		if p.Timestamp.IsZero() {
			continue
		}
		decay := math.Exp(-decayRate * p.HoursSincePost / decayUnit)
		base := float64(p.Likes)*likeWeight +
			float64(p.Replies)*replyWeight +
			float64(p.Reposts)*repostWeight
		lengthFactor := math.Log1p(float64(utf8.RuneCountInString(p.Content))) / 10

		raws[i] = base * decay * (1 + lengthFactor)
		if raws[i] > maxRaw {
			maxRaw = raws[i]
		}
	}

	if maxRaw <= 0 {
		return
	}
	for i := range posts {
		posts[i].HeatDensity = raws[i] / maxRaw * 100
	}
}

// applyFreshness scores recency on a 24h exponential decay, clipped to [0,1].
func applyFreshness(posts []models.EnrichedPost) {
	for i, p := range posts {
		if p.Timestamp.IsZero() {
			continue
		}
		f := math.Exp(-p.HoursSincePost / decayUnit)
		posts[i].FreshnessScore = clip(f, 0, 1)
	}
}

// applyEngagementRate rates each post against the author's batch mean, then
// log-compresses. Degenerate ratios (NaN, +-Inf) collapse to 1.
func applyEngagementRate(posts []models.EnrichedPost) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range posts {
		sums[p.Username] += float64(p.TotalInteractions)
		counts[p.Username]++
	}

	for i, p := range posts {
		mean := 1.0
		if n := counts[p.Username]; n > 0 {
			mean = sums[p.Username] / float64(n)
		}

		rate := float64(p.TotalInteractions) / mean
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			rate = 1.0
		}
		posts[i].EngagementRate = math.Log1p(rate)
	}
}

// applyViralPotential blends repost ratio, interaction velocity, content
// signals, and freshness, then batch-normalizes into [0,1].
func (c *Calculator) applyViralPotential(posts []models.EnrichedPost) {
	raws := make([]float64, len(posts))
	var maxRaw float64
	for i, p := range posts {
		if p.Timestamp.IsZero() {
			continue
		}
		repostRatio := float64(p.Reposts) / float64(p.TotalInteractions+1)
		velocity := float64(p.TotalInteractions) / (p.HoursSincePost + 1)

		signals := 0.0
		if strings.Contains(p.Content, "#") {
			signals++
		}
		if strings.Contains(p.Content, "@") {
			signals++
		}
		if strings.Contains(p.Content, "http") {
			signals++
		}

		raws[i] = repostRatio*0.4 +
			math.Log1p(velocity)*0.3 +
			signals*0.1 +
			p.FreshnessScore*0.2
		if raws[i] > maxRaw {
			maxRaw = raws[i]
		}
	}

	if maxRaw <= 0 {
		return
	}
	for i := range posts {
		posts[i].ViralPotential = raws[i] / maxRaw
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
