package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Topic is a stemmed term with its term-frequency score.
type Topic struct {
	Term  string
	Score float64
}

// Topics tokenises text, drops stop words, Porter-stems the remainder and
// scores terms by frequency. K scales with length: roughly one topic per
// hundred tokens, floored at 3 and capped at 20.
func Topics(text string) []Topic {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	counts := map[string]int{}
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		stem := Stem(tok)
		if len(stem) < 2 {
			continue
		}
		counts[stem]++
	}
	if len(counts) == 0 {
		return nil
	}

	k := len(tokens) / 100
	if k < 3 {
		k = 3
	}
	if k > 20 {
		k = 20
	}

	topics := make([]Topic, 0, len(counts))
	for term, c := range counts {
		topics = append(topics, Topic{Term: term, Score: float64(c)})
	}
	// Frequency descending, term ascending for a stable order.
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Score != topics[j].Score {
			return topics[i].Score > topics[j].Score
		}
		return topics[i].Term < topics[j].Term
	})
	if len(topics) > k {
		topics = topics[:k]
	}
	return topics
}

// Tokenize lowercases text and splits it into alphanumeric tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Stem applies the Porter (Snowball English) stemmer. Words the stemmer
// rejects pass through unchanged, so repeated runs stay stable.
func Stem(word string) string {
	stemmed := english.Stem(word, false)
	if stemmed == "" {
		return word
	}
	return stemmed
}
