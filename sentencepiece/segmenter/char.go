package segmenter

import (
	"unicode/utf8"

	"github.com/gomlx/go-tokenizer-core/sentencepiece"
)

// Char implements spec.md §4.5's CharSegmenter: every UTF-8 scalar in the
// input becomes its own piece, looked up directly with no merging.
type Char struct {
	model *sentencepiece.Model
}

// NewChar returns a Char segmenter over model.
func NewChar(model *sentencepiece.Model) *Char {
	return &Char{model: model}
}

// Encode implements spec.md §4.5. Malformed UTF-8 is recovered one byte at a
// time, matching normalizer.ReplacementChar's byte-by-byte recovery rule, so
// a Char segmenter can run directly over raw bytes that never went through a
// Normalizer.
func (c *Char) Encode(input []byte) []EncodedPiece {
	if c.model.Status() != nil || len(input) == 0 {
		return nil
	}
	var out []EncodedPiece
	for len(input) > 0 {
		r, size := utf8.DecodeRune(input)
		if r == utf8.RuneError && size <= 1 {
			size = 1
		}
		scalar := input[:size]
		out = append(out, EncodedPiece{Bytes: scalar, ID: c.model.PieceToID(scalar)})
		input = input[size:]
	}
	return out
}
