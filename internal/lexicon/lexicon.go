// Package lexicon holds the word tables used by the analytic components:
// stop-words for duplicate detection and summarization, and the polarity,
// intensifier and negator tables used for sentiment scoring.
//
// Tables are immutable after construction. Components receive them at
// construction time; nothing here is shared mutable state.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Fold lower-cases s with Turkish casing rules (İ -> i, I -> ı).
func Fold(s string) string {
	// Caser is stateful, so a fresh one per call keeps Fold goroutine-safe.
	return cases.Lower(language.Turkish).String(s)
}

// WordSet is an immutable set of folded words.
type WordSet struct {
	words map[string]struct{}
}

// NewWordSet folds and stores the given words.
func NewWordSet(words ...string) WordSet {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(Fold(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return WordSet{words: m}
}

func (s WordSet) Has(word string) bool {
	_, ok := s.words[word]
	return ok
}

func (s WordSet) Len() int {
	return len(s.words)
}

// Words returns the set content sorted.
func (s WordSet) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// With returns a new set holding s plus extra.
func (s WordSet) With(extra ...string) WordSet {
	return NewWordSet(append(s.Words(), extra...)...)
}

// Sentiment groups the tables read by the sentiment scorer.
type Sentiment struct {
	Positive     WordSet
	Negative     WordSet
	Negators     WordSet
	intensifiers map[string]float64
}

// NewSentiment builds sentiment tables. Intensifier keys may be multi-word
// phrases separated by single spaces.
func NewSentiment(positive, negative, negators []string, intensifiers map[string]float64) Sentiment {
	in := make(map[string]float64, len(intensifiers))
	for k, v := range intensifiers {
		k = strings.Join(strings.Fields(Fold(k)), " ")
		if k != "" && v > 0 {
			in[k] = v
		}
	}
	return Sentiment{
		Positive:     NewWordSet(positive...),
		Negative:     NewWordSet(negative...),
		Negators:     NewWordSet(negators...),
		intensifiers: in,
	}
}

// Intensifier returns the multiplier for word or phrase.
func (s Sentiment) Intensifier(phrase string) (float64, bool) {
	m, ok := s.intensifiers[phrase]
	return m, ok
}

// Intensifiers returns a copy of the intensifier table.
func (s Sentiment) Intensifiers() map[string]float64 {
	out := make(map[string]float64, len(s.intensifiers))
	for k, v := range s.intensifiers {
		out[k] = v
	}
	return out
}

// Tables is the complete lexicon configuration.
type Tables struct {
	DedupStopWords   WordSet
	SummaryStopWords WordSet
	Sentiment        Sentiment
}

// Default returns the built-in Turkish tables.
func Default() Tables {
	return Tables{
		DedupStopWords:   NewWordSet(dedupStopWords...),
		SummaryStopWords: NewWordSet(summaryStopWords...),
		Sentiment:        NewSentiment(positiveWords, negativeWords, negatorWords, intensifierWords),
	}
}

// overrides is the on-disk shape of a lexicon extension file.
type overrides struct {
	DedupStopWords   []string           `yaml:"dedup_stopwords"`
	SummaryStopWords []string           `yaml:"summary_stopwords"`
	Positive         []string           `yaml:"positive"`
	Negative         []string           `yaml:"negative"`
	Negators         []string           `yaml:"negators"`
	Intensifiers     map[string]float64 `yaml:"intensifiers"`
}

// LoadFile reads a YAML file whose entries extend the default tables.
// An intensifier listed in the file replaces the default multiplier.
func LoadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var o overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Tables{}, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	def := Default()
	in := def.Sentiment.Intensifiers()
	for k, v := range o.Intensifiers {
		in[k] = v
	}

	return Tables{
		DedupStopWords:   def.DedupStopWords.With(o.DedupStopWords...),
		SummaryStopWords: def.SummaryStopWords.With(o.SummaryStopWords...),
		Sentiment: NewSentiment(
			append(def.Sentiment.Positive.Words(), o.Positive...),
			append(def.Sentiment.Negative.Words(), o.Negative...),
			append(def.Sentiment.Negators.Words(), o.Negators...),
			in,
		),
	}, nil
}
