package sentencepiece

import (
	"context"

	"github.com/gomlx/go-tokenizer-core/sentencepiece/normalizer"
	"github.com/gomlx/go-tokenizer-core/sentencepiece/segmenter"
)

// segmentEncoder is the shared capability spec.md §9's "Design Notes"
// recommends over a virtual-dispatch hierarchy: BPE, Word and Char each
// satisfy it, and Processor dispatches on construction, not per call.
type segmentEncoder interface {
	Encode(input []byte) []segmenter.EncodedPiece
}

// ModelType selects which segmentEncoder a Processor builds, mirroring the
// `UNIGRAM | BPE | WORD | CHAR` model-type field of spec.md §6's Model
// record. There is no UNIGRAM value (spec.md's core is the Normalizer and
// the BPE segmenter); NewProcessor latches a config error for any value
// other than the three below.
type ModelType int

const (
	ModelBPE ModelType = iota
	ModelWord
	ModelChar
)

// Processor implements spec.md §6's public encode surface: it ties a
// Normalizer to a segmentEncoder selected by ModelType. A constructed
// Processor is immutable and safe for concurrent use; Encode allocates all
// of its working state on the calling goroutine's stack, per spec.md §5.
type Processor struct {
	model      *Model
	normalizer *normalizer.Normalizer
	encoder    segmentEncoder
	status     error
}

// NewProcessor builds a Processor from a Model and a Normalizer built
// separately by the caller (typically via assets.Store.Load followed by
// normalizer.New and NewModel). Either constituent's latched status is
// adopted as the Processor's own.
func NewProcessor(model *Model, norm *normalizer.Normalizer, modelType ModelType) *Processor {
	p := &Processor{model: model, normalizer: norm}

	if model.Status() != nil {
		p.status = model.Status()
		return p
	}
	if norm.Status() != nil {
		p.status = norm.Status()
		return p
	}

	switch modelType {
	case ModelBPE:
		p.encoder = segmenter.New(model)
	case ModelWord:
		p.encoder = segmenter.NewWord(model)
	case ModelChar:
		p.encoder = segmenter.NewChar(model)
	default:
		p.status = configError("unknown model type %d", modelType)
	}
	return p
}

// Status returns the latched construction error, or nil if construction
// succeeded.
func (p *Processor) Status() error {
	return p.status
}

// Encode implements spec.md §6's `encode(raw_text) → [(piece_bytes, id)]`:
// it normalizes rawText and segments the result, returning pairs whose
// concatenated Bytes reproduce the Normalizer's output exactly (invariant 1
// of spec.md §8). ctx is accepted so callers can thread a trace id or
// deadline through their own instrumentation; per spec.md §5 the core
// itself never reads ctx's deadline or does any blocking on it.
func (p *Processor) Encode(ctx context.Context, rawText string) []segmenter.EncodedPiece {
	_ = ctx
	if p.status != nil {
		return nil
	}
	result := p.normalizer.Normalize(rawText)
	return p.encoder.Encode(result.Normalized)
}

// Normalize exposes the Normalizer's result for callers that need the
// byte-level alignment back to rawText (e.g. mapping token spans), in
// addition to the (piece, id) pairs Encode returns.
func (p *Processor) Normalize(rawText string) normalizer.Result {
	if p.status != nil {
		return normalizer.Result{Normalized: []byte{}, Alignment: []int{0}}
	}
	return p.normalizer.Normalize(rawText)
}

// IDToPiece returns the byte string for id, or nil if id is out of range.
func (p *Processor) IDToPiece(id int) []byte {
	return p.model.IDToPiece(id)
}

// PieceToID returns the id for piece, or the model's unk id for a miss.
func (p *Processor) PieceToID(piece []byte) int {
	return p.model.PieceToID(piece)
}
