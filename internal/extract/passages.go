package extract

import (
	"sort"
	"strings"
)

// maxPassages is the number of key sentences emitted per chunk.
const maxPassages = 3

// Passages picks up to three key sentences from text. Each sentence scores
// by contained entities, overlap with the chunk's top topics, and a
// positional prior favouring the first and last fifth of the chunk.
// Ties break toward the earliest sentence.
func Passages(text string, entities []Entity, topics []Topic) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if len(sentences) <= maxPassages {
		return sentences
	}

	topicSet := map[string]struct{}{}
	for _, t := range topics {
		topicSet[t.Term] = struct{}{}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	total := len(sentences)

	for i, sent := range sentences {
		var score float64
		lower := strings.ToLower(sent)

		for _, e := range entities {
			if strings.Contains(lower, strings.ToLower(e.Text)) {
				score += 1.0
			}
		}
		for _, tok := range Tokenize(sent) {
			if _, stop := stopwords[tok]; stop {
				continue
			}
			if _, ok := topicSet[Stem(tok)]; ok {
				score += 0.5
			}
		}
		// Positional prior: first and last 20% of the chunk.
		pos := float64(i) / float64(total)
		if pos < 0.2 || pos >= 0.8 {
			score += 1.0
		}

		ranked = append(ranked, scored{idx: i, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	top := ranked[:maxPassages]
	// Emit in document order for readable enrichment text.
	sort.Slice(top, func(i, j int) bool { return top[i].idx < top[j].idx })

	out := make([]string, 0, maxPassages)
	for _, s := range top {
		out = append(out, sentences[s.idx])
	}
	return out
}
