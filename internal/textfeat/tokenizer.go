package textfeat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// A token survives filtering only if it is pure Latin letters or pure CJK
// ideographs (mixed is fine); anything with digits or punctuation is noise.
var tokenPattern = regexp.MustCompile(`^[a-zA-Z\x{4e00}-\x{9fff}]+$`)

// Tokenizer segments mixed CJK/Latin text into lower-cased, filtered tokens.
// CJK spans are cut with a dictionary segmenter, Latin spans fall out of the
// same pass as whitespace/punctuation-delimited words.
type Tokenizer struct {
	seg  gse.Segmenter
	stop map[string]struct{}
}

// NewTokenizer loads the embedded segmenter dictionary and the stopword
// tables. The dictionary load happens once per process.
func NewTokenizer() (*Tokenizer, error) {
	t := &Tokenizer{stop: defaultStopwords()}
	if err := t.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dictionary: %w", err)
	}
	return t, nil
}

// StripURLs removes HTTP(S) URLs so their fragments never become tokens.
func StripURLs(text string) string {
	return urlRegex.ReplaceAllString(text, " ")
}

// Tokenize returns the filtered token stream of one document. Single-rune
// tokens, stopwords, and anything outside the letter/ideograph pattern
// (which also excludes purely numeric tokens) are dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	text = StripURLs(strings.ToLower(text))
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var tokens []string
	for _, word := range t.seg.Cut(text, true) {
		word = strings.TrimSpace(word)
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if !tokenPattern.MatchString(word) {
			continue
		}
		if _, skip := t.stop[word]; skip {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TokenizeAll tokenizes every document, keeping only non-empty results.
func (t *Tokenizer) TokenizeAll(texts []string) [][]string {
	docs := make([][]string, 0, len(texts))
	for _, text := range texts {
		if tokens := t.Tokenize(text); len(tokens) > 0 {
			docs = append(docs, tokens)
		}
	}
	return docs
}
