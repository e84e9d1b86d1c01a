package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesEmail(t *testing.T) {
	entities := Entities("Contact alice@example.com about the plan")

	found := false
	for _, e := range entities {
		if e.Kind == KindEmail && e.Text == "alice@example.com" {
			found = true
		}
	}
	assert.True(t, found, "email entity not detected: %v", entities)
}

func TestEntitiesURL(t *testing.T) {
	entities := Entities("See https://example.com/docs. Then reply.")

	found := false
	for _, e := range entities {
		if e.Kind == KindURL {
			assert.Equal(t, "https://example.com/docs", e.Text)
			found = true
		}
	}
	assert.True(t, found)
}

func TestEntitiesQuotedTerm(t *testing.T) {
	entities := Entities(`The feature is called "semantic recall" internally.`)

	found := false
	for _, e := range entities {
		if e.Kind == KindQuotedTerm && e.Text == "semantic recall" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEntitiesCapitalizedPhrase(t *testing.T) {
	entities := Entities("We met John Smith at the Berlin Marathon yesterday.")

	var phrases []string
	for _, e := range entities {
		if e.Kind == KindCapitalizedNoun {
			phrases = append(phrases, e.Text)
		}
	}
	assert.Contains(t, phrases, "John Smith")
	assert.Contains(t, phrases, "Berlin Marathon")
}

func TestEntitiesSkipSentenceInitialStopWords(t *testing.T) {
	entities := Entities("The Quick Fox jumped. It Was Nothing.")

	for _, e := range entities {
		if e.Kind == KindCapitalizedNoun {
			assert.NotEqual(t, "The", strings.Fields(e.Text)[0])
			assert.NotEqual(t, "It", strings.Fields(e.Text)[0])
		}
	}
}

func TestEntitiesStableOrder(t *testing.T) {
	text := "Mail bob@host.org or carol@host.org, see https://a.example and https://b.example"
	first := Entities(text)
	second := Entities(text)
	assert.Equal(t, first, second)
}

func TestTopicsFrequencyScored(t *testing.T) {
	text := strings.Repeat("database indexing matters. ", 10) + "unrelated word"
	topics := Topics(text)

	require.NotEmpty(t, topics)
	assert.Equal(t, Stem("database"), topics[0].Term)
	assert.GreaterOrEqual(t, topics[0].Score, 10.0)
}

func TestTopicsSkipStopwords(t *testing.T) {
	topics := Topics("the the the the and and and engine")
	for _, topic := range topics {
		assert.NotEqual(t, "the", topic.Term)
		assert.NotEqual(t, "and", topic.Term)
	}
}

func TestTopicsCountScalesWithLength(t *testing.T) {
	short := Topics("alpha beta gamma delta epsilon")
	assert.LessOrEqual(t, len(short), 3+2) // floor 3, tolerance for ties

	var b strings.Builder
	words := []string{"apple", "banana", "cherry", "damson", "elder", "fig",
		"grape", "honeydew", "kiwi", "lemon", "mango", "nectarine", "olive",
		"peach", "quince", "raspberry", "strawberry", "tomato", "ugli",
		"vanilla", "walnut", "yam", "zucchini"}
	for i := 0; i < 3000; i++ {
		b.WriteString(words[i%len(words)])
		b.WriteByte(' ')
	}
	long := Topics(b.String())
	assert.Len(t, long, 20) // ceiling
}

func TestStemIdempotentPerWord(t *testing.T) {
	for _, w := range []string{"running", "databases", "indexed", "programming"} {
		assert.Equal(t, Stem(w), Stem(w))
	}
}

func TestPassagesShortTextReturnsAll(t *testing.T) {
	text := "One sentence here. Another sentence there."
	passages := Passages(text, nil, nil)
	assert.Len(t, passages, 2)
}

func TestPassagesCapAtThree(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("Filler sentence without much signal at all. ")
	}
	passages := Passages(b.String(), nil, nil)
	assert.Len(t, passages, 3)
}

func TestPassagesPreferEntityBearing(t *testing.T) {
	text := "Plain filler sentence one here. Plain filler sentence two here. " +
		"Plain filler sentence three here. Mail alice@example.com for details on this. " +
		"Plain filler sentence four here. Plain filler sentence five here. " +
		"Plain filler sentence six here. Plain filler sentence seven here."
	entities := Entities(text)
	passages := Passages(text, entities, nil)

	joined := strings.Join(passages, " ")
	assert.Contains(t, joined, "alice@example.com")
}

func TestEnrichedTextDeterministic(t *testing.T) {
	text := "Send results to bob@corp.example. The Annual Report shows growth. " +
		"Revenue doubled because the team shipped early. See https://corp.example/report for more."

	first := EnrichedText(All(text))
	second := EnrichedText(All(text))

	assert.Equal(t, first, second)
	assert.Contains(t, first, "bob@corp.example")
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("First one. Second one! Third one? Trailing bit")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First one.", sentences[0])
	assert.Equal(t, "Trailing bit", sentences[3])
}
