package textfeat

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/threadsradar/threads-radar/internal/models"
)

// VectorizerConfig mirrors the usual TF-IDF knobs: vocabulary cap, document
// frequency bounds, and the n-gram range upper bound (1 = unigrams only,
// 2 = unigrams and bigrams).
type VectorizerConfig struct {
	MaxFeatures int
	MinDF       int
	MaxDF       float64
	NGramMax    int
}

// Matrix is a fitted TF-IDF corpus: one l2-normalized row per input
// document over Terms. Terms keep first-seen corpus order.
type Matrix struct {
	Terms []string
	Rows  [][]float64
}

// ErrEmptyVocabulary is returned when no term survives the document
// frequency bounds.
var ErrEmptyVocabulary = errors.New("tfidf: empty vocabulary")

// FitTransform builds the vocabulary from the tokenized documents and
// returns the weighted matrix. Documents may be empty; their rows are zero.
func FitTransform(cfg VectorizerConfig, docs [][]string) (*Matrix, error) {
	if cfg.NGramMax < 1 {
		cfg.NGramMax = 1
	}
	if len(docs) == 0 {
		return nil, ErrEmptyVocabulary
	}

	grams := make([][]string, len(docs))
	for i, doc := range docs {
		grams[i] = ngrams(doc, cfg.NGramMax)
	}

	// Document frequency and total count per term, tracking first-seen order.
	df := make(map[string]int)
	total := make(map[string]int)
	var order []string
	for _, doc := range grams {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := total[term]; !ok {
				order = append(order, term)
			}
			total[term]++
			seen[term] = struct{}{}
		}
		for term := range seen {
			df[term]++
		}
	}

	maxDF := len(docs)
	if cfg.MaxDF > 0 && cfg.MaxDF < 1 {
		maxDF = int(cfg.MaxDF * float64(len(docs)))
		if maxDF < 1 {
			maxDF = 1
		}
	}
	minDF := cfg.MinDF
	if minDF < 1 {
		minDF = 1
	}

	var terms []string
	for _, term := range order {
		if df[term] >= minDF && df[term] <= maxDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// Vocabulary cap keeps the terms with the highest corpus counts.
	if cfg.MaxFeatures > 0 && len(terms) > cfg.MaxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return total[terms[i]] > total[terms[j]]
		})
		terms = terms[:cfg.MaxFeatures]
		// Restore first-seen ordering within the kept set.
		pos := make(map[string]int, len(order))
		for i, term := range order {
			pos[term] = i
		}
		sort.Slice(terms, func(i, j int) bool {
			return pos[terms[i]] < pos[terms[j]]
		})
	}

	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}

	// Smoothed IDF, then l2 row normalization.
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float64, len(docs))
	for d, doc := range grams {
		row := make([]float64, len(terms))
		for _, term := range doc {
			if i, ok := index[term]; ok {
				row[i]++
			}
		}
		var norm float64
		for i := range row {
			row[i] *= idf[i]
			norm += row[i] * row[i]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for i := range row {
				row[i] /= norm
			}
		}
		rows[d] = row
	}

	return &Matrix{Terms: terms, Rows: rows}, nil
}

// MeanWeights averages each term's weight across all rows and returns the
// terms sorted by descending weight, ties kept in first-seen term order.
func (m *Matrix) MeanWeights() []models.TermWeight {
	if m == nil || len(m.Rows) == 0 {
		return nil
	}

	out := make([]models.TermWeight, len(m.Terms))
	for i, term := range m.Terms {
		var sum float64
		for _, row := range m.Rows {
			sum += row[i]
		}
		out[i] = models.TermWeight{Term: term, Weight: sum / float64(len(m.Rows))}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

func ngrams(tokens []string, max int) []string {
	if max <= 1 || len(tokens) < 2 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for size := 2; size <= max; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+size], " "))
		}
	}
	return out
}
