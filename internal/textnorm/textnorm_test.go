package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/newslens/internal/lexicon"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Merkez Bankası, faizi %45'e yükseltti!")
	assert.Equal(t, []string{"merkez", "bankası", "faizi", "45", "e", "yükseltti"}, got)

	assert.Nil(t, Tokenize(""))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestTokenizeTurkishCasing(t *testing.T) {
	assert.Equal(t, []string{"istanbul", "ılık"}, Tokenize("İSTANBUL ILIK"))
}

func TestNormalizeDropsShortAndStopWords(t *testing.T) {
	n := NewNormalizer(lexicon.NewWordSet("için", "olarak"))
	got := n.Normalize("Ankara için yeni bir karar olarak açıklandı ve uygulandı")
	assert.Equal(t, []string{"ankara", "yeni", "bir", "karar", "açıklandı", "uygulandı"}, got)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(lexicon.Default().DedupStopWords)
	text := "Deprem sonrası yardım kampanyası başladı, yardım sürüyor."
	assert.Equal(t, n.Normalize(text), n.Normalize(text))
}

func TestSet(t *testing.T) {
	n := NewNormalizer(lexicon.NewWordSet())
	set := n.Set("yardım yardım kampanya")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "yardım")
}
