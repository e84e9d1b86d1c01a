// Package plaintext handles plain text and source code files.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents with the extensions listed by
// Extensions. Content that is not valid UTF-8 is rejected.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{
		".txt", ".log", ".csv", ".json", ".yaml", ".yml", ".toml",
		".go", ".py", ".js", ".ts", ".rs", ".java", ".c", ".cpp", ".rb",
		".sh", ".sql", ".html", ".xml", ".css",
	}
}

// Normalise converts raw bytes to a single extracted text.
func (n *Normaliser) Normalise(_ context.Context, filename string, content []byte) ([]driven.ExtractedText, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrInvalidInput
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return []driven.ExtractedText{{
		Text: text,
		Metadata: map[string]string{
			"source":   "file",
			"filename": filename,
		},
	}}, nil
}
