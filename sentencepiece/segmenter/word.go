package segmenter

import "github.com/gomlx/go-tokenizer-core/sentencepiece"

// Word implements spec.md §4.5's WordSegmenter: it splits normalized input
// on the whitespace sentinel (each token keeps its leading sentinel, the
// usual SentencePiece convention) and looks each token up directly, with no
// merging at all.
type Word struct {
	model *sentencepiece.Model
}

// NewWord returns a Word segmenter over model.
func NewWord(model *sentencepiece.Model) *Word {
	return &Word{model: model}
}

// Encode implements spec.md §4.5. Returns nil when the model's status is
// not OK or input is empty, matching BPE's failure-mode contract.
func (w *Word) Encode(input []byte) []EncodedPiece {
	if w.model.Status() != nil || len(input) == 0 {
		return nil
	}
	words := SplitIntoWords(input, false)
	out := make([]EncodedPiece, 0, len(words))
	for _, word := range words {
		out = append(out, EncodedPiece{Bytes: word, ID: w.model.PieceToID(word)})
	}
	return out
}
