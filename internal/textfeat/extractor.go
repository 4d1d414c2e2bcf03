// Package textfeat turns free post text into weighted terms: dictionary
// segmentation for CJK spans, stopword filtering, and TF-IDF weighting
// with unigrams and bigrams.
package textfeat

import (
	"github.com/threadsradar/threads-radar/internal/models"
)

// Defaults for batch keyword extraction.
const (
	DefaultMaxFeatures = 100
	maxKeywords        = 50
)

// Extractor is the batch-level text feature pipeline.
type Extractor struct {
	tok   *Tokenizer
	minDF int
}

// NewExtractor wires a tokenizer with the minimum document frequency used
// for keyword extraction.
func NewExtractor(tok *Tokenizer, minDF int) *Extractor {
	if minDF < 1 {
		minDF = 1
	}
	return &Extractor{tok: tok, minDF: minDF}
}

// Tokenizer exposes the underlying tokenizer for callers that vectorize
// with their own TF-IDF parameters.
func (e *Extractor) Tokenizer() *Tokenizer { return e.tok }

// ExtractKeywords returns up to 50 terms ranked by mean TF-IDF weight over
// the corpus. Empty input, or input where every document filters down to
// nothing, yields an empty list.
func (e *Extractor) ExtractKeywords(texts []string, maxFeatures int) []models.TermWeight {
	if len(texts) == 0 {
		return nil
	}
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	docs := e.tok.TokenizeAll(texts)
	if len(docs) == 0 {
		return nil
	}

	matrix, err := FitTransform(VectorizerConfig{
		MaxFeatures: maxFeatures,
		MinDF:       e.minDF,
		MaxDF:       0.8,
		NGramMax:    2,
	}, docs)
	if err != nil {
		return nil
	}

	weights := matrix.MeanWeights()
	if len(weights) > maxKeywords {
		weights = weights[:maxKeywords]
	}
	return weights
}
