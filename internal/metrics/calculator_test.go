package metrics_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/threadsradar/threads-radar/internal/metrics"
	"github.com/threadsradar/threads-radar/internal/models"
)

func post(id, user string, likes, replies, reposts int, ts time.Time) models.RawPost {
	return models.RawPost{
		PostID:    id,
		Username:  user,
		Likes:     likes,
		Replies:   replies,
		Reposts:   reposts,
		Timestamp: ts,
		ScrapedAt: ts,
	}
}

func TestEnrichEmptyBatch(t *testing.T) {
	calc := metrics.NewCalculator(nil)
	require.Nil(t, calc.Enrich(time.Now(), nil))
	require.Nil(t, calc.Enrich(time.Now(), []models.RawPost{}))
}

func TestHeatDensityTopPostIsExactlyHundred(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	batch := []models.RawPost{
		post("a", "u1", 10, 0, 0, now),
		post("b", "u2", 0, 0, 0, now),
		post("c", "u3", 0, 0, 0, now),
	}

	enriched := calc.Enrich(now, batch)
	require.Len(t, enriched, 3)
	require.Equal(t, 100.0, enriched[0].HeatDensity)
	require.Equal(t, 0.0, enriched[1].HeatDensity)
	require.Equal(t, 0.0, enriched[2].HeatDensity)
}

func TestHeatDensityAllZeroBatchStaysZero(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	batch := []models.RawPost{
		post("a", "u1", 0, 0, 0, now.Add(-time.Hour)),
		post("b", "u2", 0, 0, 0, now.Add(-2*time.Hour)),
	}

	for _, p := range calc.Enrich(now, batch) {
		require.Equal(t, 0.0, p.HeatDensity)
	}
}

func TestHeatDensitySinglePostBatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	enriched := calc.Enrich(now, []models.RawPost{post("a", "u1", 3, 1, 0, now.Add(-6*time.Hour))})
	require.Len(t, enriched, 1)
	require.Equal(t, 100.0, enriched[0].HeatDensity)
}

func TestHeatDensityRepliesWeighHeavierThanLikes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	batch := []models.RawPost{
		post("likes", "u1", 10, 0, 0, now),
		post("replies", "u2", 0, 10, 0, now),
	}

	enriched := calc.Enrich(now, batch)
	require.Equal(t, 100.0, enriched[1].HeatDensity)
	require.InDelta(t, 50.0, enriched[0].HeatDensity, 1e-9)
}

func TestScoreBoundsHold(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	batch := []models.RawPost{
		post("a", "u1", 500, 120, 44, now.Add(-30*time.Minute)),
		post("b", "u1", 0, 0, 0, now.Add(-48*time.Hour)),
		post("c", "u2", 3, 0, 1, now.Add(-6*time.Hour)),
		post("d", "u3", 12000, 900, 3000, now.Add(-100*time.Hour)),
	}
	batch[0].Content = "check this out #launch @team http://example.com"
	batch[2].Content = "short"

	for _, p := range calc.Enrich(now, batch) {
		require.GreaterOrEqual(t, p.HeatDensity, 0.0)
		require.LessOrEqual(t, p.HeatDensity, 100.0)
		require.GreaterOrEqual(t, p.FreshnessScore, 0.0)
		require.LessOrEqual(t, p.FreshnessScore, 1.0)
		require.GreaterOrEqual(t, p.ViralPotential, 0.0)
		require.LessOrEqual(t, p.ViralPotential, 1.0)
		require.GreaterOrEqual(t, p.EngagementRate, 0.0)
	}
}

func TestFreshnessMonotonicallyNonIncreasing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	var batch []models.RawPost
	for i := 0; i < 8; i++ {
		batch = append(batch, post("p", "u", 1, 0, 0, now.Add(-time.Duration(i*12)*time.Hour)))
	}

	enriched := calc.Enrich(now, batch)
	for i := 1; i < len(enriched); i++ {
		require.LessOrEqual(t, enriched[i].FreshnessScore, enriched[i-1].FreshnessScore)
	}
	require.InDelta(t, 1.0, enriched[0].FreshnessScore, 1e-9)
}

func TestEngagementRateAgainstUserMean(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	// Same author: 10 and 0 interactions, mean 5 -> rates log1p(2) and log1p(0).
	batch := []models.RawPost{
		post("a", "alice", 10, 0, 0, now),
		post("b", "alice", 0, 0, 0, now),
	}

	enriched := calc.Enrich(now, batch)
	require.InDelta(t, 1.0986, enriched[0].EngagementRate, 1e-3)
	require.Equal(t, 0.0, enriched[1].EngagementRate)
}

func TestEngagementRateZeroMeanCollapsesToOne(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	enriched := calc.Enrich(now, []models.RawPost{post("a", "ghost", 0, 0, 0, now)})
	// 0/0 collapses to a rate of 1 before compression.
	require.InDelta(t, math.Log1p(1), enriched[0].EngagementRate, 1e-9)
}

func TestViralPotentialContentSignals(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	plain := post("plain", "u1", 5, 0, 2, now.Add(-time.Hour))
	loud := post("loud", "u2", 5, 0, 2, now.Add(-time.Hour))
	loud.Content = "big news #breaking @everyone http://example.com"

	enriched := calc.Enrich(now, []models.RawPost{plain, loud})
	require.Equal(t, 1.0, enriched[1].ViralPotential)
	require.Less(t, enriched[0].ViralPotential, enriched[1].ViralPotential)
}

func TestNegativeCountersClampedToZero(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	p := post("a", "u1", -5, -1, -2, now)
	enriched := calc.Enrich(now, []models.RawPost{p})
	require.Equal(t, 0, enriched[0].TotalInteractions)
	require.Equal(t, 0.0, enriched[0].HeatDensity)
}

func TestZeroTimestampExcludedFromNormalization(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := metrics.NewCalculator(nil)

	valid := post("good", "u1", 10, 0, 0, now)
	broken := post("bad", "u2", 99999, 0, 0, time.Time{})

	enriched := calc.Enrich(now, []models.RawPost{valid, broken})
	require.Equal(t, 100.0, enriched[0].HeatDensity)
	require.Equal(t, 0.0, enriched[1].HeatDensity)
	require.Equal(t, 0.0, enriched[1].FreshnessScore)
}
