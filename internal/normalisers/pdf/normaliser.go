// Package pdf extracts the text layer from PDF documents by invoking the
// pdftotext utility (poppler-utils), which is available on Jetson-class
// Linux images. Scanned PDFs without a text layer yield no text.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// CommandRunner abstracts external command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser extracts PDF text layers.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser using the system pdftotext binary.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(r CommandRunner) *Normaliser {
	return &Normaliser{runner: r}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Normalise writes content to a temp file and runs pdftotext over it.
func (n *Normaliser) Normalise(ctx context.Context, filename string, content []byte) ([]driven.ExtractedText, error) {
	if len(content) == 0 {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "mindsage-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		// Image-only PDF; nothing to index.
		return nil, nil
	}

	return []driven.ExtractedText{{
		Text: text,
		Metadata: map[string]string{
			"source":   "file",
			"filename": filename,
			"format":   "pdf",
			"title":    strings.TrimSuffix(filepath.Base(filename), ".pdf"),
		},
	}}, nil
}
