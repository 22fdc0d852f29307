package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/newslens/internal/lexicon"
)

// MinTokenLen is the shortest token kept by Normalize. Shorter tokens are
// dropped.
const MinTokenLen = 3

// Normalizer turns text into filtered tokens using a stop-word set.
// It is safe for concurrent use.
type Normalizer struct {
	stop lexicon.WordSet
}

func NewNormalizer(stop lexicon.WordSet) *Normalizer {
	return &Normalizer{stop: stop}
}

// Tokenize folds text to lower case and splits it on anything that is not a
// letter, digit or underscore. No filtering is applied.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(lexicon.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && !unicode.Is(unicode.Mn, r)
	})
}

// Normalize tokenizes text and drops short tokens and stop-words, keeping
// token order.
func (n *Normalizer) Normalize(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if utf8.RuneCountInString(t) < MinTokenLen || n.stop.Has(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Set returns the distinct normalized tokens of text.
func (n *Normalizer) Set(text string) map[string]struct{} {
	tokens := n.Normalize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
