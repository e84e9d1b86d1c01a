// Package extract produces heuristic enrichment for paragraph chunks:
// typed entities, frequency-scored topics and key passages. The serialised
// concatenation of the three becomes the chunk's enriched text, which is
// indexed alongside the chunk body to boost full-text recall.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// EntityKind classifies an extracted entity.
type EntityKind string

// Entity kinds detected by the heuristic extractor.
const (
	KindEmail           EntityKind = "email"
	KindURL             EntityKind = "url"
	KindQuotedTerm      EntityKind = "quoted"
	KindCapitalizedNoun EntityKind = "noun_phrase"
)

// Entity is a typed term detected in chunk text.
type Entity struct {
	Kind EntityKind
	Text string
}

var (
	emailRe  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlRe    = regexp.MustCompile(`https?://\S+`)
	quotedRe = regexp.MustCompile(`["']([^"']{2,60})["']`)
)

// Sentence-initial words that start a capitalised run but are not nouns.
var phraseStopWords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "This": {}, "That": {}, "These": {},
	"Those": {}, "It": {}, "He": {}, "She": {}, "They": {}, "We": {},
	"You": {}, "I": {}, "If": {}, "When": {}, "While": {}, "After": {},
	"Before": {}, "But": {}, "And": {}, "Or": {}, "So": {}, "In": {},
	"On": {}, "At": {}, "For": {}, "With": {}, "From": {}, "To": {},
}

// Entities extracts typed entities from text. The result is sorted by kind
// then text so repeated extraction is stable.
func Entities(text string) []Entity {
	seen := map[Entity]struct{}{}

	for _, m := range emailRe.FindAllString(text, -1) {
		seen[Entity{Kind: KindEmail, Text: m}] = struct{}{}
	}
	for _, m := range urlRe.FindAllString(text, -1) {
		seen[Entity{Kind: KindURL, Text: strings.TrimRight(m, ".,;:!?)")}] = struct{}{}
	}
	for _, cap := range quotedRe.FindAllStringSubmatch(text, -1) {
		term := strings.TrimSpace(cap[1])
		if term != "" {
			seen[Entity{Kind: KindQuotedTerm, Text: term}] = struct{}{}
		}
	}
	for _, phrase := range capitalizedPhrases(text) {
		seen[Entity{Kind: KindCapitalizedNoun, Text: phrase}] = struct{}{}
	}

	out := make([]Entity, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// capitalizedPhrases finds runs of two or more capitalised tokens, skipping
// runs that begin with a sentence-initial stop word.
func capitalizedPhrases(text string) []string {
	var phrases []string
	for _, sentence := range SplitSentences(text) {
		words := strings.Fields(sentence)
		var run []string
		flush := func() {
			if len(run) >= 2 {
				if _, stop := phraseStopWords[run[0]]; !stop {
					phrases = append(phrases, strings.Join(run, " "))
				} else if len(run) >= 3 {
					// Drop the leading stop word, keep the rest.
					phrases = append(phrases, strings.Join(run[1:], " "))
				}
			}
			run = nil
		}
		for _, w := range words {
			cleaned := strings.TrimFunc(w, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if cleaned != "" && unicode.IsUpper([]rune(cleaned)[0]) && !isAllUpper(cleaned) {
				run = append(run, cleaned)
				continue
			}
			flush()
		}
		flush()
	}
	return phrases
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// SplitSentences splits text at sentence terminators followed by whitespace.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		b := text[i]
		if (b == '.' || b == '!' || b == '?') && i+1 < len(text) && isASCIISpace(text[i+1]) {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
