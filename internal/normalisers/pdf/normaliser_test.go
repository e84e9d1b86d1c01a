package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func TestNormaliseExtractsTextLayer(t *testing.T) {
	n := NewWithRunner(&mockRunner{output: []byte("Extracted page text.\n")})

	out, err := n.Normalise(context.Background(), "report.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Extracted page text.", out[0].Text)
	assert.Equal(t, "pdf", out[0].Metadata["format"])
	assert.Equal(t, "report", out[0].Metadata["title"])
}

func TestNormaliseEmptyTextLayer(t *testing.T) {
	n := NewWithRunner(&mockRunner{output: []byte("   \n")})

	out, err := n.Normalise(context.Background(), "scanned.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNormaliseRunnerFailure(t *testing.T) {
	n := NewWithRunner(&mockRunner{err: errors.New("binary missing")})

	_, err := n.Normalise(context.Background(), "doc.pdf", []byte("%PDF"))
	assert.Error(t, err)
}

func TestNormaliseEmptyInput(t *testing.T) {
	n := New()
	_, err := n.Normalise(context.Background(), "empty.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
