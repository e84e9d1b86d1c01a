package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

func TestShortTextSingleSectionAndParagraph(t *testing.T) {
	c := New()
	chunks := c.Chunk("hello world")

	require.Len(t, chunks, 2)
	assert.Equal(t, domain.LevelSection, chunks[0].Level)
	assert.Equal(t, domain.LevelParagraph, chunks[1].Level)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, "hello world", chunks[1].Text)
}

func TestHeadingsSplitSections(t *testing.T) {
	c := New()
	text := "# Section 1\n\nParagraph one about topic A.\n\nParagraph two about topic B.\n\n\n\n# Section 2\n\nAnother paragraph here."
	chunks := c.Chunk(text)

	var sections, paragraphs int
	for _, ch := range chunks {
		switch ch.Level {
		case domain.LevelSection:
			sections++
		case domain.LevelParagraph:
			paragraphs++
		}
	}
	assert.GreaterOrEqual(t, sections, 2)
	assert.GreaterOrEqual(t, paragraphs, 2)
}

func TestUnderlinedHeadingSplitsSections(t *testing.T) {
	c := New()
	text := "Intro text before the heading.\nFirst Heading\n=====\nBody of the first part.\nSecond Heading\n-----\nBody of the second part."
	chunks := c.Chunk(text)

	var sections int
	for _, ch := range chunks {
		if ch.Level == domain.LevelSection {
			sections++
		}
	}
	assert.GreaterOrEqual(t, sections, 2)
}

func TestOverlapExactOnUnbrokenText(t *testing.T) {
	c := New()
	text := strings.Repeat("abcdefghij", 150) // 1500 chars, no separators

	chunks := c.Chunk(text)

	var paras []domain.Chunk
	for _, ch := range chunks {
		if ch.Level == domain.LevelParagraph {
			paras = append(paras, ch)
		}
	}
	require.GreaterOrEqual(t, len(paras), 3)

	for i, p := range paras {
		assert.LessOrEqual(t, len(p.Text), DefaultChunkSize, "chunk %d too large", i)
	}
	for i := 1; i < len(paras); i++ {
		prev := paras[i-1].Text
		tail := prev[len(prev)-DefaultChunkOverlap:]
		assert.Equal(t, tail, paras[i].Text[:DefaultChunkOverlap],
			"chunks %d/%d do not share %d chars", i-1, i, DefaultChunkOverlap)
	}
}

func TestDeterministic(t *testing.T) {
	c := New()
	text := "# Title\n\n" + strings.Repeat("Some sentence about things. ", 80)

	first := c.Chunk(text)
	second := c.Chunk(text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestOrdinalsAreDocumentOrder(t *testing.T) {
	c := New()
	text := "# A\n\n" + strings.Repeat("alpha beta gamma. ", 60) + "\n\n\n\n# B\n\nshort tail"
	chunks := c.Chunk(text)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestParagraphsReferenceOwningSection(t *testing.T) {
	c := New()
	text := "# One\n\nbody one\n\n\n\n# Two\n\nbody two"
	chunks := c.Chunk(text)

	for _, ch := range chunks {
		if ch.Level != domain.LevelParagraph {
			continue
		}
		require.GreaterOrEqual(t, ch.ParentID, int64(0))
		parent := chunks[ch.ParentID]
		assert.Equal(t, domain.LevelSection, parent.Level)
		assert.Contains(t, parent.Text, strings.TrimSpace(ch.Text[:4]))
	}
}

func TestSizeForExtension(t *testing.T) {
	size, overlap := SizeForExtension(".go")
	assert.Equal(t, 400, size)
	assert.Equal(t, 80, overlap)

	size, overlap = SizeForExtension(".md")
	assert.Equal(t, 600, size)
	assert.Equal(t, 120, overlap)

	size, overlap = SizeForExtension(".bin")
	assert.Equal(t, DefaultChunkSize, size)
	assert.Equal(t, DefaultChunkOverlap, overlap)
}

func TestEmptySectionProducesNoParagraphs(t *testing.T) {
	c := New()
	chunks := c.Chunk("")
	// A single empty section container; the splitter yields no paragraphs.
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.LevelSection, chunks[0].Level)
}
