package sentencepiece

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPieceIsReserved(t *testing.T) {
	assert.True(t, Piece{Bytes: []byte("<unk>"), Type: UnknownPiece}.IsReserved())
	assert.True(t, Piece{Bytes: []byte("<s>"), Type: ControlPiece}.IsReserved())
	assert.False(t, Piece{Bytes: []byte("abc"), Type: NormalPiece}.IsReserved())
	assert.False(t, Piece{Bytes: []byte("abc"), Type: UnusedPiece}.IsReserved())
	assert.False(t, Piece{Bytes: []byte("abc"), Type: UserDefinedPiece}.IsReserved())
}

func TestPieceTypeString(t *testing.T) {
	assert.Equal(t, "NORMAL", NormalPiece.String())
	assert.Equal(t, "UNKNOWN", UnknownPiece.String())
	assert.Equal(t, "CONTROL", ControlPiece.String())
	assert.Equal(t, "UNUSED", UnusedPiece.String())
	assert.Equal(t, "USER_DEFINED", UserDefinedPiece.String())
	assert.Equal(t, "INVALID", PieceType(99).String())
}
