// Package summary implements extractive summarization: sentences are ranked
// by a term-frequency / inverse-sentence-frequency weight and the best ones
// are returned in their original order.
package summary

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/newslens/internal/lexicon"
	"github.com/deusflow/newslens/internal/textnorm"
)

const (
	// MinTextLength is the shortest input, in runes, that gets summarized.
	MinTextLength = 100
	// minSentenceLength drops fragments of this many runes or fewer.
	minSentenceLength = 10

	DefaultSentences    = 3
	DefaultKeywordCount = 5
	// DefaultTrendSentences is the sentence budget of SummarizeMany.
	DefaultTrendSentences = 5

	leadBoost    = 1.2
	closingBoost = 1.1
)

// Result of a summarization.
type Result struct {
	OriginalText   string   `json:"originalText"`
	Summary        string   `json:"summary"`
	SentenceCount  int      `json:"sentenceCount"`
	ReductionRatio float64  `json:"reductionRatio"`
	Keywords       []string `json:"keywords,omitempty"`
}

type Options struct {
	ExtractKeywords bool
}

// Summarizer is stateless between calls; weights are rebuilt for every text.
type Summarizer struct {
	norm         *textnorm.Normalizer
	keywordCount int
}

type Option func(*Summarizer)

// WithKeywordCount sets how many keywords are extracted.
func WithKeywordCount(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.keywordCount = n
		}
	}
}

func New(stop lexicon.WordSet, opts ...Option) *Summarizer {
	s := &Summarizer{
		norm:         textnorm.NewNormalizer(stop),
		keywordCount: DefaultKeywordCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize selects the sentenceCount highest ranked sentences of text.
// A sentenceCount below 1 is treated as 1.
func (s *Summarizer) Summarize(text string, sentenceCount int, opts Options) Result {
	if sentenceCount < 1 {
		sentenceCount = 1
	}

	if utf8.RuneCountInString(text) < MinTextLength {
		res := Result{OriginalText: text, Summary: text, SentenceCount: 1}
		if opts.ExtractKeywords {
			res.Keywords = []string{}
		}
		return res
	}

	sentences := SplitSentences(text)
	if len(sentences) <= sentenceCount {
		res := Result{
			OriginalText:  text,
			Summary:       strings.Join(sentences, " "),
			SentenceCount: len(sentences),
		}
		if opts.ExtractKeywords {
			res.Keywords = s.Keywords(text)
		}
		return res
	}

	scores := s.scoreSentences(sentences)
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	picked := order[:sentenceCount]
	sort.Ints(picked)
	selected := make([]string, 0, sentenceCount)
	for _, i := range picked {
		selected = append(selected, sentences[i])
	}
	summary := strings.Join(selected, " ")

	total := utf8.RuneCountInString(text)
	res := Result{
		OriginalText:   text,
		Summary:        summary,
		SentenceCount:  len(selected),
		ReductionRatio: round2(float64(total-utf8.RuneCountInString(summary)) / float64(total) * 100),
	}
	if opts.ExtractKeywords {
		res.Keywords = s.Keywords(text)
	}
	return res
}

// SummarizeMany summarizes several texts as one corpus, always with keywords.
func (s *Summarizer) SummarizeMany(texts []string, totalSentences int) Result {
	if totalSentences < 1 {
		totalSentences = DefaultTrendSentences
	}
	return s.Summarize(strings.Join(texts, " "), totalSentences, Options{ExtractKeywords: true})
}

// Headline builds a title from the best sentence of text, cut to maxLen runes.
func (s *Summarizer) Headline(text string, maxLen int) string {
	title := s.Summarize(text, 1, Options{}).Summary
	r := []rune(title)
	if maxLen > 3 && len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return title
}

// Keywords returns the most frequent normalized tokens of text. Ties keep the
// order in which tokens first appear.
func (s *Summarizer) Keywords(text string) []string {
	tokens := s.norm.Normalize(text)
	freq := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if freq[t] == 0 {
			order = append(order, t)
		}
		freq[t]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > s.keywordCount {
		order = order[:s.keywordCount]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// scoreSentences treats every sentence as a document. A token occurrence adds
// tf(t,s) * (1 + ln(N / (1 + df(t)))). The first and last sentences get a
// positional boost and every score is divided by sqrt(token count).
func (s *Summarizer) scoreSentences(sentences []string) []float64 {
	docs := make([]map[string]int, len(sentences))
	tokens := make([][]string, len(sentences))
	df := make(map[string]int)

	for i, sentence := range sentences {
		tokens[i] = s.norm.Normalize(sentence)
		tf := make(map[string]int, len(tokens[i]))
		for _, t := range tokens[i] {
			if tf[t] == 0 {
				df[t]++
			}
			tf[t]++
		}
		docs[i] = tf
	}

	n := float64(len(sentences))
	scores := make([]float64, len(sentences))
	for i := range sentences {
		if len(tokens[i]) == 0 {
			continue
		}
		score := 0.0
		for _, t := range tokens[i] {
			isf := 1 + math.Log(n/float64(1+df[t]))
			score += float64(docs[i][t]) * isf
		}
		if i == 0 {
			score *= leadBoost
		}
		if i == len(sentences)-1 {
			score *= closingBoost
		}
		scores[i] = score / math.Sqrt(float64(len(tokens[i])))
	}
	return scores
}

// SplitSentences breaks text after '.', '!' or '?' when the next non-space
// character is an upper-case letter. Fragments of ten runes or fewer are
// dropped.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	flush := func(end int) {
		sentence := strings.TrimSpace(text[start:end])
		if utf8.RuneCountInString(sentence) > minSentenceLength {
			out = append(out, sentence)
		}
		start = end
	}

	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + utf8.RuneLen(r)
		next, _ := utf8.DecodeRuneInString(strings.TrimLeftFunc(text[end:], unicode.IsSpace))
		if unicode.IsUpper(next) {
			flush(end)
		}
	}
	flush(len(text))
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
