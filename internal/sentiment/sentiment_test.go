package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newslens/internal/lexicon"
)

func testScorer() *Scorer {
	return New(lexicon.Default().Sentiment)
}

func TestScoreIntensifiedNegative(t *testing.T) {
	r := testScorer().Score("çok kötü bir gelişme")
	assert.Less(t, r.Score, -1.0)
	assert.Equal(t, -1.5, r.Score)
	assert.Equal(t, LabelNegative, r.Label)
	assert.Equal(t, []string{"kötü"}, r.NegativeWords)
	assert.Empty(t, r.PositiveWords)
}

func TestScoreTrailingNegation(t *testing.T) {
	r := testScorer().Score("kriz değil")
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.Equal(t, []string{"kriz"}, r.PositiveWords)
	assert.Empty(t, r.NegativeWords)

	// the same rule turns a positive word followed by "yok" negative
	r = testScorer().Score("başarı yok")
	assert.Equal(t, -1.0, r.Score)
	assert.Equal(t, LabelNegative, r.Label)
	assert.Equal(t, []string{"başarı"}, r.NegativeWords)
	assert.Empty(t, r.PositiveWords)
}

func TestScoreLeadingNegation(t *testing.T) {
	r := testScorer().Score("asla başarı")
	assert.Equal(t, -1.0, r.Score)
	assert.Equal(t, []string{"başarı"}, r.NegativeWords)
}

func TestModifierOnlyReachesNextToken(t *testing.T) {
	// "bugün" sits between the intensifier and the lexicon word and clears it.
	r := testScorer().Score("çok bugün kötü")
	assert.Equal(t, -1.0, r.Score)

	// a modifier with nothing after it is dropped
	r = testScorer().Score("harika çok")
	assert.Equal(t, 1.0, r.Score)
}

func TestMultiWordIntensifier(t *testing.T) {
	r := testScorer().Score("son derece başarılı")
	assert.Equal(t, 2.0, r.Score)
	assert.Equal(t, LabelPositive, r.Label)
}

func TestScoreEmptyAndNeutral(t *testing.T) {
	for _, text := range []string{"", "   ", "bugün hava bulutlu"} {
		r := testScorer().Score(text)
		assert.Zero(t, r.Score)
		assert.Zero(t, r.Comparative)
		assert.Zero(t, r.Confidence)
		assert.Equal(t, LabelNeutral, r.Label)
		assert.NotNil(t, r.PositiveWords)
		assert.NotNil(t, r.NegativeWords)
	}
}

func TestComparativeAndConfidence(t *testing.T) {
	r := testScorer().Score("Başarılı bir yıl: rekor büyüme ama enflasyon sorun")
	// +1 +1 +1 -1 -1 over five matches
	assert.Equal(t, 1.0, r.Score)
	assert.Equal(t, 0.2, r.Comparative)
	assert.Equal(t, 1.0, r.Confidence)
	assert.Equal(t, LabelPositive, r.Label)
	assert.Equal(t, []string{"başarılı", "rekor", "büyüme"}, r.PositiveWords)
	assert.Equal(t, []string{"enflasyon", "sorun"}, r.NegativeWords)
}

func TestHitListsAreDistinct(t *testing.T) {
	r := testScorer().Score("kriz kriz kriz")
	assert.Equal(t, -3.0, r.Score)
	assert.Equal(t, []string{"kriz"}, r.NegativeWords)
	assert.Equal(t, 0.6, r.Confidence)
}

func TestScoreIsDeterministic(t *testing.T) {
	s := testScorer()
	text := "Deprem sonrası büyük yardım kampanyası umut verdi"
	assert.Equal(t, s.Score(text), s.Score(text))
}

func TestLabelThresholds(t *testing.T) {
	assert.Equal(t, LabelNeutral, Label(0.5))
	assert.Equal(t, LabelPositive, Label(0.51))
	assert.Equal(t, LabelNeutral, Label(-0.5))
	assert.Equal(t, LabelNegative, Label(-0.51))
}

func TestScoreBatch(t *testing.T) {
	res := testScorer().ScoreBatch([]string{"harika başarı", "kötü kriz", "hava güneşli"})
	require.Len(t, res.Results, 3)
	assert.Equal(t, 1, res.Aggregate.PositiveCount)
	assert.Equal(t, 1, res.Aggregate.NegativeCount)
	assert.Equal(t, 1, res.Aggregate.NeutralCount)
	assert.Equal(t, 0.0, res.Aggregate.AverageScore)
	assert.Equal(t, LabelNeutral, res.Aggregate.OverallLabel)

	empty := testScorer().ScoreBatch(nil)
	assert.Empty(t, empty.Results)
	assert.Zero(t, empty.Aggregate.AverageScore)
	assert.Equal(t, LabelNeutral, empty.Aggregate.OverallLabel)
}

func TestScoreRecord(t *testing.T) {
	s := testScorer()

	r := s.ScoreRecord("Rekor büyüme", "Ancak işsizlik ve enflasyon sorun olmaya devam ediyor")
	// title +2, content -3 -> 1.2 - 1.2 = 0
	assert.Equal(t, 2.0, r.TitleSentiment.Score)
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, LabelNeutral, r.Label)
	assert.Equal(t, r.TitleSentiment.Confidence, r.Confidence)
	assert.Equal(t, []string{"rekor", "büyüme"}, r.PositiveWords)
	assert.Equal(t, []string{"işsizlik", "enflasyon", "sorun"}, r.NegativeWords)

	titleOnly := s.ScoreRecord("Büyük felaket", "")
	assert.Equal(t, -1.3, titleOnly.Score)
	assert.Equal(t, titleOnly.TitleSentiment.Score, titleOnly.Score)
	assert.Equal(t, LabelNegative, titleOnly.Label)
}
