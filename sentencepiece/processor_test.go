package sentencepiece

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/go-tokenizer-core/sentencepiece/normalizer"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	model := NewModel("test", basicPieces(), ModelSpec{})
	require.NoError(t, model.Status())
	norm := normalizer.New(&normalizer.Spec{
		EscapeWhitespaces:      true,
		AddDummyPrefix:         true,
		RemoveExtraWhitespaces: true,
	})
	require.NoError(t, norm.Status())
	return NewProcessor(model, norm, ModelBPE)
}

func TestProcessorEncodeConcatenationInvariant(t *testing.T) {
	p := newTestProcessor(t)
	require.NoError(t, p.Status())

	pieces := p.Encode(context.Background(), "a b c")
	normalized := p.Normalize("a b c")

	var joined []byte
	for _, piece := range pieces {
		joined = append(joined, piece.Bytes...)
	}
	assert.Equal(t, normalized.Normalized, joined)
}

func TestProcessorIDToPieceAndPieceToID(t *testing.T) {
	p := newTestProcessor(t)
	require.NoError(t, p.Status())

	assert.Equal(t, []byte("abc"), p.IDToPiece(6))
	assert.Equal(t, 6, p.PieceToID([]byte("abc")))
}

func TestProcessorBadModelStatusDegradesToEmpty(t *testing.T) {
	badModel := NewModel("bad", nil, ModelSpec{})
	require.Error(t, badModel.Status())
	norm := normalizer.New(&normalizer.Spec{})

	p := NewProcessor(badModel, norm, ModelBPE)
	require.Error(t, p.Status())
	assert.Nil(t, p.Encode(context.Background(), "abc"))
}

func TestProcessorUnknownModelTypeLatchesConfigError(t *testing.T) {
	model := NewModel("test", basicPieces(), ModelSpec{})
	require.NoError(t, model.Status())
	norm := normalizer.New(&normalizer.Spec{})

	p := NewProcessor(model, norm, ModelType(99))
	require.Error(t, p.Status())
}
