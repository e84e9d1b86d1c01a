// Package chunker splits raw text into a two-level hierarchy: sections
// (level 0) split on headings or large gaps, and paragraph chunks (level 1)
// produced by a recursive splitter with overlap. Only paragraph chunks are
// embedded and searched; sections are containers for context expansion.
package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

// DefaultChunkSize is the paragraph chunk target, aligned with all-MiniLM
// class models (256 tokens ≈ 512 chars).
const DefaultChunkSize = 512

// DefaultChunkOverlap is the overlap carried from the tail of one paragraph
// chunk into the head of the next.
const DefaultChunkOverlap = 100

// Section boundaries: a heading line or a gap of three or more newlines.
var sectionBoundaryRe = regexp.MustCompile(`(\n#{1,6}\s)|(\n\n\n+)`)

// A setext underline: a line of = or - (3+) directly beneath a text line.
var underlineRe = regexp.MustCompile(`\n[^\n]+\n(={3,}|-{3,})(\n|$)`)

// Chunker produces the hierarchical chunk list for a document.
// It is deterministic: the same input yields the same chunks and ordinals.
type Chunker struct {
	para *recursiveSplitter
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the paragraph chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.para.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent paragraph chunks.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.para.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		para: &recursiveSplitter{
			chunkSize:  DefaultChunkSize,
			overlap:    DefaultChunkOverlap,
			separators: []string{"\n\n", "\n", ". ", " ", ""},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.para.overlap >= c.para.chunkSize {
		c.para.overlap = c.para.chunkSize / 4
	}
	return c
}

// Chunk splits text into interleaved section (level 0) and paragraph
// (level 1) chunks in document order. A paragraph chunk's ParentID holds the
// index of its owning section in the returned slice (the store turns it into
// a real parent link); section chunks carry -1. Text without any section
// boundary still yields a single section at index 0.
func (c *Chunker) Chunk(text string) []domain.Chunk {
	sections := c.splitSections(text)

	var all []domain.Chunk
	for _, sec := range sections {
		sectionIdx := len(all)
		all = append(all, domain.Chunk{
			Level:     domain.LevelSection,
			Ordinal:   sectionIdx,
			Text:      sec.text,
			CharStart: sec.start,
			CharEnd:   sec.start + len(sec.text),
			ParentID:  -1,
		})

		for _, p := range c.para.split(sec.text) {
			all = append(all, domain.Chunk{
				Level:     domain.LevelParagraph,
				Ordinal:   len(all),
				Text:      p.text,
				CharStart: sec.start + p.start,
				CharEnd:   sec.start + p.end,
				ParentID:  int64(sectionIdx),
			})
		}
	}
	return all
}

type section struct {
	text  string
	start int
}

// splitSections cuts text at heading markers and 3+ newline gaps, whichever
// occurs. Texts with no boundary come back as a single section.
func (c *Chunker) splitSections(text string) []section {
	cuts := map[int]struct{}{}
	for _, m := range sectionBoundaryRe.FindAllStringIndex(text, -1) {
		cuts[m[0]] = struct{}{}
	}
	for _, m := range underlineRe.FindAllStringIndex(text, -1) {
		cuts[m[0]] = struct{}{}
	}
	if len(cuts) == 0 {
		return []section{{text: text, start: 0}}
	}

	offsets := make([]int, 0, len(cuts))
	for off := range cuts {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	var sections []section
	prev := 0
	for _, off := range offsets {
		if off > prev {
			if s := strings.TrimSpace(text[prev:off]); s != "" {
				sections = append(sections, section{text: s, start: prev})
			}
		}
		prev = off
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sections = append(sections, section{text: s, start: prev})
	}
	if len(sections) == 0 {
		return []section{{text: text, start: 0}}
	}
	return sections
}

// piece is one paragraph chunk with offsets into the section text.
type piece struct {
	text  string
	start int
	end   int
}

// recursiveSplitter splits text along a separator hierarchy: blank line,
// newline, sentence end, whitespace, then raw characters. Each produced
// chunk is at most chunkSize characters including the overlap prepended
// from its predecessor's tail.
type recursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// split returns paragraph chunks with overlap applied.
func (r *recursiveSplitter) split(text string) []piece {
	if text == "" {
		return nil
	}

	// Raw pieces are bounded by chunkSize-overlap so the final chunks stay
	// within chunkSize once the predecessor tail is prepended.
	budget := r.chunkSize - r.overlap
	if budget <= 0 {
		budget = r.chunkSize
	}
	raw := r.splitText(text, r.separators, budget)

	pieces := make([]piece, 0, len(raw))
	pos := 0
	for i, rt := range raw {
		start := strings.Index(text[pos:], rt)
		if start < 0 {
			start = 0
		}
		start += pos
		end := start + len(rt)
		pos = end

		chunkText := rt
		if i > 0 && r.overlap > 0 {
			prev := pieces[i-1].text
			tail := prev
			if len(tail) > r.overlap {
				tail = tail[len(tail)-r.overlap:]
			}
			chunkText = tail + rt
			start -= len(tail)
		}
		pieces = append(pieces, piece{text: chunkText, start: start, end: end})
	}
	return pieces
}

// splitText recursively splits on the separator hierarchy, merging adjacent
// splits while they fit within maxSize.
func (r *recursiveSplitter) splitText(text string, separators []string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return windowSplit(text, maxSize)
	}

	sep := separators[0]
	rest := separators[1:]

	if sep == "" {
		return windowSplit(text, maxSize)
	}

	splits := strings.Split(text, sep)

	var chunks []string
	var current []string
	currentSize := 0

	for _, s := range splits {
		switch {
		case len(s) > maxSize:
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, sep))
				current = nil
				currentSize = 0
			}
			chunks = append(chunks, r.splitText(s, rest, maxSize)...)
		case currentSize+len(s)+len(sep) > maxSize && len(current) > 0:
			chunks = append(chunks, strings.Join(current, sep))
			current = []string{s}
			currentSize = len(s)
		default:
			current = append(current, s)
			currentSize += len(s) + len(sep)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

// windowSplit cuts text into consecutive maxSize windows.
func windowSplit(text string, maxSize int) []string {
	var out []string
	for start := 0; start < len(text); start += maxSize {
		end := start + maxSize
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
	}
	return out
}

// SizeForExtension returns (chunkSize, overlap) tuned to the file type:
// tighter chunks for source code, wider for prose documents.
func SizeForExtension(fileExtension string) (int, int) {
	switch strings.ToLower(fileExtension) {
	case ".py", ".js", ".java", ".cpp", ".c", ".go", ".rs", ".ts", ".tsx", ".jsx":
		return 400, 80
	case ".md", ".rst", ".tex", ".txt":
		return 600, 120
	}
	return DefaultChunkSize, DefaultChunkOverlap
}
