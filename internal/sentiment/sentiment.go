package sentiment

import (
	"math"
	"strings"

	"github.com/deusflow/newslens/internal/lexicon"
	"github.com/deusflow/newslens/internal/textnorm"
)

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"

	labelThreshold = 0.5
	// matches needed for full confidence
	confidenceMatches = 5

	titleWeight   = 0.6
	contentWeight = 0.4
)

// Result is the sentiment of a single text.
type Result struct {
	Score         float64  `json:"score"`
	Comparative   float64  `json:"comparative"`
	Label         string   `json:"label"`
	Confidence    float64  `json:"confidence"`
	PositiveWords []string `json:"positiveWords"`
	NegativeWords []string `json:"negativeWords"`
}

// RecordResult is the weighted sentiment of a title and its content.
type RecordResult struct {
	Result
	TitleSentiment Result `json:"titleSentiment"`
}

// Aggregate summarizes a batch.
type Aggregate struct {
	AverageScore  float64 `json:"averageScore"`
	OverallLabel  string  `json:"overallLabel"`
	PositiveCount int     `json:"positiveCount"`
	NegativeCount int     `json:"negativeCount"`
	NeutralCount  int     `json:"neutralCount"`
}

type BatchResult struct {
	Results   []Result  `json:"results"`
	Aggregate Aggregate `json:"aggregate"`
}

// Scorer applies lexicon rules to text. It holds no mutable state.
type Scorer struct {
	lex lexicon.Sentiment
}

func New(lex lexicon.Sentiment) *Scorer {
	return &Scorer{lex: lex}
}

// Label maps a score onto positive, negative or neutral.
func Label(score float64) string {
	switch {
	case score > labelThreshold:
		return LabelPositive
	case score < -labelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Score walks the tokens of text once. An intensifier or negator applies only
// to the lexicon word right after it; any other token clears both. A negator
// directly following a lexicon word also flips that word.
func (s *Scorer) Score(text string) Result {
	tokens := textnorm.Tokenize(text)

	var (
		pos, neg   hits
		score      float64
		matched    int
		multiplier = 1.0
		negated    bool
	)

	for i := 0; i < len(tokens); i++ {
		word := tokens[i]

		if i+1 < len(tokens) {
			if m, ok := s.lex.Intensifier(word + " " + tokens[i+1]); ok {
				multiplier = m
				i++
				continue
			}
		}
		if m, ok := s.lex.Intensifier(word); ok {
			multiplier = m
			continue
		}
		if s.lex.Negators.Has(word) {
			negated = true
			continue
		}

		base := 0.0
		switch {
		case s.lex.Positive.Has(word):
			base = 1
		case s.lex.Negative.Has(word):
			base = -1
		}
		if base != 0 {
			contrib := base * multiplier
			if negated {
				contrib = -contrib
			}
			// Turkish negates after the word ("kriz değil"), so a negator
			// right behind a lexicon word flips it too and is consumed.
			if i+1 < len(tokens) && s.lex.Negators.Has(tokens[i+1]) {
				contrib = -contrib
				i++
			}
			if contrib > 0 {
				pos.add(word)
			} else {
				neg.add(word)
			}
			score += contrib
			matched++
		}

		multiplier = 1
		negated = false
	}

	comparative := 0.0
	if matched > 0 {
		comparative = score / float64(matched)
	}

	score = round2(score)
	return Result{
		Score:         score,
		Comparative:   round2(comparative),
		Label:         Label(score),
		Confidence:    round2(math.Min(float64(matched)/confidenceMatches, 1)),
		PositiveWords: pos.list(),
		NegativeWords: neg.list(),
	}
}

// ScoreBatch scores every text and aggregates the labels.
func (s *Scorer) ScoreBatch(texts []string) BatchResult {
	out := BatchResult{Results: make([]Result, 0, len(texts))}
	total := 0.0

	for _, t := range texts {
		r := s.Score(t)
		out.Results = append(out.Results, r)
		total += r.Score
		switch r.Label {
		case LabelPositive:
			out.Aggregate.PositiveCount++
		case LabelNegative:
			out.Aggregate.NegativeCount++
		default:
			out.Aggregate.NeutralCount++
		}
	}

	avg := 0.0
	if len(texts) > 0 {
		avg = total / float64(len(texts))
	}
	out.Aggregate.AverageScore = round2(avg)
	out.Aggregate.OverallLabel = Label(out.Aggregate.AverageScore)
	return out
}

// ScoreRecord weighs the title at 60% and the content at 40%. Confidence
// comes from the title alone. Empty content is scored as title only.
func (s *Scorer) ScoreRecord(title, content string) RecordResult {
	titleRes := s.Score(title)

	score := titleRes.Score
	comparative := titleRes.Comparative
	pos := hits{}
	neg := hits{}
	pos.addAll(titleRes.PositiveWords)
	neg.addAll(titleRes.NegativeWords)

	if strings.TrimSpace(content) != "" {
		contentRes := s.Score(content)
		score = titleRes.Score*titleWeight + contentRes.Score*contentWeight
		comparative = titleRes.Comparative*titleWeight + contentRes.Comparative*contentWeight
		pos.addAll(contentRes.PositiveWords)
		neg.addAll(contentRes.NegativeWords)
	}

	score = round2(score)
	return RecordResult{
		Result: Result{
			Score:         score,
			Comparative:   round2(comparative),
			Label:         Label(score),
			Confidence:    titleRes.Confidence,
			PositiveWords: pos.list(),
			NegativeWords: neg.list(),
		},
		TitleSentiment: titleRes,
	}
}

// hits collects distinct words in first-seen order.
type hits struct {
	seen  map[string]struct{}
	words []string
}

func (h *hits) add(w string) {
	if h.seen == nil {
		h.seen = make(map[string]struct{})
	}
	if _, ok := h.seen[w]; ok {
		return
	}
	h.seen[w] = struct{}{}
	h.words = append(h.words, w)
}

func (h *hits) addAll(ws []string) {
	for _, w := range ws {
		h.add(w)
	}
}

func (h *hits) list() []string {
	if h.words == nil {
		return []string{}
	}
	return h.words
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
