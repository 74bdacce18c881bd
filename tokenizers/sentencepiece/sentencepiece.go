// Package sentencepiece adapts sentencepiece.Processor to the
// tokenizers/api.Tokenizer contract, the thin wrapper role the teacher's
// own tokenizers/sentencepiece package played over eliben/go-sentencepiece
// — here wrapping this module's own Normalizer+BPE core instead.
package sentencepiece

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/gomlx/go-tokenizer-core/sentencepiece"
	"github.com/gomlx/go-tokenizer-core/sentencepiece/normalizer"
	"github.com/gomlx/go-tokenizer-core/tokenizers/api"
)

// Tokenizer implements api.Tokenizer and api.TokenizerWithSpans over a
// sentencepiece.Processor.
type Tokenizer struct {
	processor *sentencepiece.Processor
	special   map[api.SpecialToken]int
}

// New wraps processor as an api.Tokenizer. special maps the reserved
// api.SpecialToken slots to this model's piece ids; a token absent from
// special reports an error from SpecialTokenID, never a zero value, so
// callers can't silently mistake "unmapped" for "maps to id 0".
func New(processor *sentencepiece.Processor, special map[api.SpecialToken]int) *Tokenizer {
	return &Tokenizer{processor: processor, special: special}
}

// Encode implements api.Tokenizer.
func (t *Tokenizer) Encode(text string) []int {
	pieces := t.processor.Encode(context.Background(), text)
	ids := make([]int, len(pieces))
	for i, p := range pieces {
		ids[i] = p.ID
	}
	return ids
}

// Decode implements api.Tokenizer: it concatenates each id's piece bytes,
// turns the whitespace sentinel back into an ordinary space, and trims a
// single leading space left over from AddDummyPrefix.
func (t *Tokenizer) Decode(ids []int) string {
	var buf bytes.Buffer
	for _, id := range ids {
		buf.Write(t.processor.IDToPiece(id))
	}
	out := bytes.ReplaceAll(buf.Bytes(), []byte(normalizer.Sentinel), []byte(" "))
	out = bytes.TrimPrefix(out, []byte(" "))
	return string(out)
}

// SpecialTokenID implements api.Tokenizer.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id, ok := t.special[token]
	if !ok {
		return 0, errors.Errorf("special token %v is not registered for this tokenizer", token)
	}
	return id, nil
}

// EncodeWithSpans implements api.TokenizerWithSpans: each token's span maps
// through the Normalizer's alignment vector back to byte offsets in the
// original (raw) text, per spec.md §3's alignment contract.
func (t *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	normalized := t.processor.Normalize(text)
	pieces := t.processor.Encode(context.Background(), text)

	result := api.EncodingResult{
		IDs:   make([]int, len(pieces)),
		Spans: make([]api.TokenSpan, len(pieces)),
	}

	pos := 0
	for i, p := range pieces {
		start := pos
		end := pos + len(p.Bytes)
		pos = end
		result.IDs[i] = p.ID
		result.Spans[i] = api.TokenSpan{
			Start: normalized.Alignment[start],
			End:   normalized.Alignment[end],
		}
	}
	return result
}
