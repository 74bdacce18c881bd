package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/go-tokenizer-core/sentencepiece"
)

func newBPEModel(t *testing.T, pieces []sentencepiece.Piece) *sentencepiece.Model {
	t.Helper()
	all := append([]sentencepiece.Piece{{Bytes: []byte("<unk>"), Type: sentencepiece.UnknownPiece}}, pieces...)
	m := sentencepiece.NewModel("test", all, sentencepiece.ModelSpec{})
	require.NoError(t, m.Status())
	return m
}

func TestBPEHigherScoreMergeWins(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("c"), Score: 0},
		{Bytes: []byte("ab"), Score: 1.0},
		{Bytes: []byte("abc"), Score: 2.0},
	})
	bpe := New(model)
	pieces := bpe.Encode([]byte("abc"))
	require.Len(t, pieces, 1)
	assert.Equal(t, "abc", string(pieces[0].Bytes))
}

func TestBPEConcatenationInvariant(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("c"), Score: 0},
		{Bytes: []byte("ab"), Score: 1.0},
	})
	bpe := New(model)
	input := []byte("abcabc")
	pieces := bpe.Encode(input)
	var joined []byte
	for _, p := range pieces {
		joined = append(joined, p.Bytes...)
	}
	assert.Equal(t, input, joined)
}

func TestBPEDeterministic(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("c"), Score: 0},
		{Bytes: []byte("ab"), Score: 1.0},
		{Bytes: []byte("bc"), Score: 1.0}, // equal score to "ab": tie broken by left index
	})
	bpe := New(model)
	first := bpe.Encode([]byte("abc"))
	second := bpe.Encode([]byte("abc"))
	assert.Equal(t, first, second)
	// "ab" (left index 0) merges before "bc" (left index 1) on an equal score.
	require.Len(t, first, 2)
	assert.Equal(t, "ab", string(first[0].Bytes))
	assert.Equal(t, "c", string(first[1].Bytes))
}

func TestBPEUnknownFallback(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
	})
	bpe := New(model)
	pieces := bpe.Encode([]byte("az"))
	require.Len(t, pieces, 2)
	assert.Equal(t, "a", string(pieces[0].Bytes))
	assert.Equal(t, model.UnkID(), pieces[1].ID)
	assert.Equal(t, "z", string(pieces[1].Bytes))
}

func TestBPEUnusedPieceResegments(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("ab"), Score: 5.0, Type: sentencepiece.UnusedPiece},
	})
	bpe := New(model)
	pieces := bpe.Encode([]byte("ab"))
	// "ab" is unused, so the merge (still queued and applied since
	// NormalPieceID matches UNUSED pieces too) must be re-expanded back
	// into its normal constituents at resegmentation time.
	require.Len(t, pieces, 2)
	assert.Equal(t, "a", string(pieces[0].Bytes))
	assert.Equal(t, "b", string(pieces[1].Bytes))
}

func TestBPEEmptyInput(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{{Bytes: []byte("a"), Score: 0}})
	bpe := New(model)
	assert.Nil(t, bpe.Encode(nil))
	assert.Nil(t, bpe.Encode([]byte{}))
}

func TestBPEBadModelStatusYieldsEmpty(t *testing.T) {
	model := sentencepiece.NewModel("bad", nil, sentencepiece.ModelSpec{}) // no UNKNOWN piece
	require.Error(t, model.Status())
	bpe := New(model)
	assert.Nil(t, bpe.Encode([]byte("abc")))
}

func TestBPEUserDefinedSymbolFrozen(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("ab"), Score: 5.0},
		{Bytes: []byte("<mask>"), Score: 0, Type: sentencepiece.UserDefinedPiece},
	})
	bpe := New(model)
	pieces := bpe.Encode([]byte("<mask>ab"))
	require.Len(t, pieces, 2)
	assert.Equal(t, "<mask>", string(pieces[0].Bytes))
	assert.Equal(t, "ab", string(pieces[1].Bytes))
}

func TestBPESameContentAtMultiplePositionsResegmentsIndependently(t *testing.T) {
	model := newBPEModel(t, []sentencepiece.Piece{
		{Bytes: []byte("a"), Score: 0},
		{Bytes: []byte("b"), Score: 0},
		{Bytes: []byte("ab"), Score: 5.0, Type: sentencepiece.UnusedPiece},
	})
	bpe := New(model)
	// "ab" occurs twice; both occurrences must resegment correctly using
	// their own position, not whichever occurrence last wrote the reverse
	// merge table entry.
	pieces := bpe.Encode([]byte("abab"))
	require.Len(t, pieces, 4)
	for i, want := range []string{"a", "b", "a", "b"} {
		assert.Equal(t, want, string(pieces[i].Bytes))
	}
}
