// Package sentiment models text polarity scoring as a pluggable capability.
// Constrained deployments run with the Neutral analyzer; nothing downstream
// needs to check for a missing capability.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/threadsradar/threads-radar/internal/models"
)

// Analyzer scores a text; Compound is a polarity score in [-1, 1].
type Analyzer interface {
	Compound(text string) float64
}

// Neutral is the default capability: every text scores 0.
type Neutral struct{}

// Compound always returns 0.
func (Neutral) Compound(string) float64 { return 0 }

// Vader scores text with the VADER lexicon model.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader builds a VADER-backed analyzer.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the VADER compound polarity of the text.
func (v *Vader) Compound(text string) float64 {
	return v.sia.PolarityScores(text).Compound
}

// MeanCompound averages the compound score over non-blank texts.
// Returns 0 when no text is scorable.
func MeanCompound(a Analyzer, texts []string) float64 {
	var sum float64
	var n int
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		sum += a.Compound(text)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Classify buckets a mean compound score at the +-0.1 thresholds.
func Classify(mean float64) string {
	switch {
	case mean > 0.1:
		return models.SentimentPositive
	case mean < -0.1:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
