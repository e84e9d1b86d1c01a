package driven

import "context"

// ExtractedText is the output of a Normaliser: plain text ready for
// chunking, plus metadata describing the origin.
type ExtractedText struct {
	// Text is the extracted plain text.
	Text string

	// Metadata carries origin details (filename, format, ...).
	Metadata map[string]string
}

// Normaliser converts one file format into plain text.
// Archive normalisers may yield several texts (one per archived entry).
type Normaliser interface {
	// Extensions returns the lowercase file extensions this normaliser
	// handles, including the leading dot.
	Extensions() []string

	// Normalise extracts text from raw file content.
	Normalise(ctx context.Context, filename string, content []byte) ([]ExtractedText, error)
}
