// Package segmenter implements the subword segmentation engines of spec.md
// §4.4-§4.6: an agenda-driven BPE merge engine over a doubly-linked symbol
// list, plus the trivial Word and Char fallbacks.
//
// The BPE algorithm is grounded directly on bpe::Model::Encode in
// _examples/original_source/src/bpe_model.cc: same Symbol/SymbolPair shape,
// same MaybeAddNewSymbolPair lookup-and-freeze rule, same staleness check
// via the `size` field, same reverse-merge resegmentation for UNUSED
// pieces.
package segmenter

import (
	"container/heap"

	"github.com/gomlx/go-tokenizer-core/sentencepiece"
	"github.com/gomlx/go-tokenizer-core/sentencepiece/prefixmatcher"
)

// EncodedPiece is one (piece bytes, vocabulary id) pair of an Encode result.
// Concatenating the Bytes fields of a full result reproduces the segmenter's
// input exactly, per spec.md §6's public encode surface.
type EncodedPiece struct {
	Bytes []byte
	ID    int
}

// symbol is a node in the doubly-linked list of byte ranges over the
// normalized input buffer described by spec.md §3. Because the initial
// symbols are laid down left-to-right over a single contiguous buffer,
// any two symbols that are current prev/next neighbors are guaranteed
// contiguous in that buffer — which is what makes zero-copy concatenation
// during a merge valid.
type symbol struct {
	prev, next int // sentinel -1 for BOS/EOS
	start, end int // half-open byte range into the shared buffer; end==start means dead
	freeze     bool
}

func (s symbol) empty() bool { return s.end == s.start }
func (s symbol) size() int   { return s.end - s.start }

// symbolPair is a candidate merge sitting on the agenda.
type symbolPair struct {
	left, right int
	score       float32
	size        int // expected merged byte length, for O(1) staleness detection
}

// agenda is a max-priority queue over *symbolPair ordered by (score, -left):
// higher score wins; on equal scores the smaller left index wins, per
// spec.md §4.4 and the Open Question in spec.md §9.
type agenda []*symbolPair

func (a agenda) Len() int { return len(a) }
func (a agenda) Less(i, j int) bool {
	if a[i].score != a[j].score {
		return a[i].score > a[j].score
	}
	return a[i].left < a[j].left
}
func (a agenda) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a *agenda) Push(x any)        { *a = append(*a, x.(*symbolPair)) }
func (a *agenda) Pop() any {
	old := *a
	n := len(old)
	item := old[n-1]
	*a = old[:n-1]
	return item
}

// BPE implements spec.md §4.4: given normalized input, it produces a
// sequence of (piece bytes, id) pairs whose concatenation equals the input.
// A BPE value is immutable once constructed and safe for concurrent Encode
// calls; each call allocates its own symbol vector, agenda and reverse-merge
// table on the stack of the calling goroutine, per spec.md §5.
type BPE struct {
	model *sentencepiece.Model
}

// New returns a BPE segmenter over model.
func New(model *sentencepiece.Model) *BPE {
	return &BPE{model: model}
}

// Encode implements spec.md §4.4's Initialization / Main loop /
// Finalization. If the model's status is not OK, or input is empty, it
// returns nil, matching "Failure modes: ... return an empty result."
func (b *BPE) Encode(input []byte) []EncodedPiece {
	if b.model.Status() != nil || len(input) == 0 {
		return nil
	}

	symbols := b.buildSymbols(input)
	if len(symbols) == 0 {
		return nil
	}

	// revMerge maps a merged piece's byte content to the byte length of its
	// left half. Keyed by content (not position), since the same piece
	// content can be merged from several positions in the input; storing a
	// length rather than absolute offsets lets resegment reapply the split
	// at whichever occurrence it's currently looking at.
	revMerge := make(map[string]int)
	// A modest initial capacity approximates the reference implementation's
	// 256-slot free-list batch (spec.md §5); Go's allocator grows the
	// backing array in chunks from there, same effect as the C++ FreeList.
	ag := make(agenda, 0, 256)

	maybeEnqueue := func(l, r int) {
		if l == -1 || r == -1 || symbols[l].freeze || symbols[r].freeze {
			return
		}
		piece := input[symbols[l].start:symbols[r].end]
		id, ok := b.model.NormalPieceID(piece)
		if !ok {
			return
		}
		heap.Push(&ag, &symbolPair{
			left:  l,
			right: r,
			score: b.model.GetScore(id),
			size:  len(piece),
		})
		if b.model.IsUnused(id) {
			revMerge[string(piece)] = symbols[l].size()
		}
	}

	for i := 1; i < len(symbols); i++ {
		maybeEnqueue(i-1, i)
	}

	for ag.Len() > 0 {
		top := heap.Pop(&ag).(*symbolPair)

		if symbols[top.left].empty() || symbols[top.right].empty() ||
			symbols[top.left].size()+symbols[top.right].size() != top.size {
			continue // stale entry, discard
		}

		l, r := top.left, top.right
		symbols[l].end = symbols[r].end
		symbols[l].next = symbols[r].next
		if symbols[r].next != -1 {
			symbols[symbols[r].next].prev = l
		}
		symbols[r].start, symbols[r].end = 0, 0 // mark dead

		maybeEnqueue(symbols[l].prev, l)
		maybeEnqueue(l, symbols[l].next)
	}

	var output []EncodedPiece
	var resegment func(start, end int)
	resegment = func(start, end int) {
		piece := input[start:end]
		id := b.model.PieceToID(piece)
		if id != b.model.UnkID() && !b.model.IsUnused(id) {
			output = append(output, EncodedPiece{Bytes: piece, ID: id})
			return
		}
		if leftLen, ok := revMerge[string(piece)]; ok {
			mid := start + leftLen
			resegment(start, mid)
			resegment(mid, end)
			return
		}
		output = append(output, EncodedPiece{Bytes: piece, ID: id})
	}

	// Symbol 0 is always alive: it can only ever be the left operand of a
	// merge (its prev is the sentinel, so maybeEnqueue never fires with it
	// as the right operand), matching bpe::Model::Encode's walk starting
	// at index 0 in _examples/original_source/src/bpe_model.cc.
	for i := 0; i != -1; i = symbols[i].next {
		resegment(symbols[i].start, symbols[i].end)
	}

	return output
}

// buildSymbols implements spec.md §4.4's Initialization step 1: it carves
// USER_DEFINED matches into frozen symbols and splits everything else into
// one symbol per UTF-8 scalar.
func (b *BPE) buildSymbols(input []byte) []symbol {
	matcher := b.model.UserDefinedMatcher()
	var symbols []symbol
	pos := 0
	for pos < len(input) {
		length, frozen := matchOrScalar(matcher, input[pos:])
		idx := len(symbols)
		prev := -1
		if idx > 0 {
			prev = idx - 1
		}
		symbols = append(symbols, symbol{
			prev:   prev,
			next:   -1, // fixed up below once we know if more symbols follow
			start:  pos,
			end:    pos + length,
			freeze: frozen,
		})
		if idx > 0 {
			symbols[idx-1].next = idx
		}
		pos += length
	}
	return symbols
}

func matchOrScalar(matcher *prefixmatcher.PrefixMatcher, input []byte) (length int, frozen bool) {
	n, found := matcher.PrefixMatch(string(input))
	return n, found
}
