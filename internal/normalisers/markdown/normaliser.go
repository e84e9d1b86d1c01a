// Package markdown handles Markdown documents, stripping formatting while
// keeping heading markers for the section chunker.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

var (
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	inlineRe    = regexp.MustCompile("`([^`]*)`")
	linkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	imageRe     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	emphasisRe  = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// Normalise strips markdown syntax down to plain text. Heading hashes are
// preserved so section boundaries survive into chunking.
func (n *Normaliser) Normalise(_ context.Context, filename string, content []byte) ([]driven.ExtractedText, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	text = imageRe.ReplaceAllString(text, "")
	text = codeFenceRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = inlineRe.ReplaceAllString(text, "$1")
	text = emphasisRe.ReplaceAllString(text, "$2")
	text = htmlTagRe.ReplaceAllString(text, "")

	title := extractTitle(text, filename)

	return []driven.ExtractedText{{
		Text: text,
		Metadata: map[string]string{
			"source":   "file",
			"filename": filename,
			"format":   "markdown",
			"title":    title,
		},
	}}, nil
}

// extractTitle uses the first heading, falling back to the filename.
func extractTitle(text, filename string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
	}
	name := filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
