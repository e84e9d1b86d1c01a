// Package normalisers wires the default set of file-type extractors.
package normalisers

import (
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers/archive"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers/markdown"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers/pdf"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers/plaintext"
)

// Defaults returns the standard normaliser set.
func Defaults() []driven.Normaliser {
	return []driven.Normaliser{
		plaintext.New(),
		markdown.New(),
		pdf.New(),
		archive.New(),
	}
}
