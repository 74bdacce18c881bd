package sentencepiece

import (
	"fmt"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/gomlx/go-tokenizer-core/sentencepiece/prefixmatcher"
)

// Default reserved-piece surface strings, used when a Model's Spec leaves
// the corresponding override empty. Mirrors ModelInterface's fallback
// defaults in _examples/original_source/src/model_interface.h.
const (
	DefaultUnknownPiece = "<unk>"
	DefaultBOSPiece     = "<s>"
	DefaultEOSPiece     = "</s>"
	DefaultPadPiece     = "<pad>"
)

// ModelSpec carries the reserved-piece overrides that parameterize a Model,
// the trainer-spec fragment spec.md §6 describes as living alongside the
// piece list. An empty override string means "use the default", exactly
// like the original ModelInterface — a present-but-empty override is not
// distinguishable from an absent one.
type ModelSpec struct {
	UnknownPiece string
	BOSPiece     string
	EOSPiece     string
	PadPiece     string
}

func (s ModelSpec) unknownOrDefault() string {
	if s.UnknownPiece == "" {
		return DefaultUnknownPiece
	}
	return s.UnknownPiece
}

func (s ModelSpec) bosOrDefault() string {
	if s.BOSPiece == "" {
		return DefaultBOSPiece
	}
	return s.BOSPiece
}

func (s ModelSpec) eosOrDefault() string {
	if s.EOSPiece == "" {
		return DefaultEOSPiece
	}
	return s.EOSPiece
}

func (s ModelSpec) padOrDefault() string {
	if s.PadPiece == "" {
		return DefaultPadPiece
	}
	return s.PadPiece
}

// Model is the shared piece/id contract used by every segmenter (BPE, Word,
// Char): it owns the dense piece table, the normal/reserved lookup indices,
// the unk id, and a PrefixMatcher over the USER_DEFINED pieces. It
// corresponds to spec.md §4.3's ModelInterface.
//
// A constructed Model is immutable and safe for concurrent use; multiple
// Encode calls (from BpeSegmenter or elsewhere) may run in parallel across
// goroutines against the same Model.
type Model struct {
	// Name is a human-readable identifier used only in log lines and
	// error messages; it never affects encode output.
	Name string

	pieces      []Piece
	normalToID  map[string]int
	reservedToID map[string]int
	unkID       int
	spec        ModelSpec
	matcher     *prefixmatcher.PrefixMatcher

	buildID uuid.UUID
	status  error
}

// NewModel builds a Model from pieces, rejecting duplicate pieces, empty
// pieces, and a missing or multiply-defined UNKNOWN piece, per spec.md §3's
// Model invariants. A failing invariant latches a ConfigError status rather
// than returning an error: callers must check Status() before calling
// Encode-family methods, matching the "construction-time errors are latched
// into a status field" propagation policy of spec.md §7.
func NewModel(name string, pieces []Piece, spec ModelSpec) *Model {
	m := &Model{
		Name:    name,
		pieces:  pieces,
		spec:    spec,
		buildID: uuid.New(),
	}

	normalToID := make(map[string]int, len(pieces))
	reservedToID := make(map[string]int, len(pieces))
	unkID := -1
	var userDefined []string

	for id, p := range pieces {
		if len(p.Bytes) == 0 {
			m.status = configError("piece %d has an empty byte string", id)
			klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
			return m
		}
		key := string(p.Bytes)
		if p.IsReserved() {
			if _, exists := reservedToID[key]; exists {
				m.status = configError("duplicate reserved piece %q", key)
				klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
				return m
			}
			if _, exists := normalToID[key]; exists {
				m.status = configError("reserved piece %q collides with a normal piece", key)
				klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
				return m
			}
			reservedToID[key] = id
		} else {
			if _, exists := normalToID[key]; exists {
				m.status = configError("duplicate normal piece %q", key)
				klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
				return m
			}
			if _, exists := reservedToID[key]; exists {
				m.status = configError("normal piece %q collides with a reserved piece", key)
				klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
				return m
			}
			normalToID[key] = id
			if p.Type == UserDefinedPiece {
				userDefined = append(userDefined, key)
			}
		}

		if p.Type == UnknownPiece {
			if unkID != -1 {
				m.status = configError("multiple UNKNOWN pieces: %d and %d", unkID, id)
				klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
				return m
			}
			unkID = id
		}
	}

	if unkID == -1 {
		m.status = configError("no UNKNOWN piece found")
		klog.Errorf("model %s (%s): %v", name, m.buildID, m.status)
		return m
	}

	m.normalToID = normalToID
	m.reservedToID = reservedToID
	m.unkID = unkID
	m.matcher = prefixmatcher.New(userDefined)
	klog.V(2).Infof("model %s (%s): loaded %d pieces, unk_id=%d", name, m.buildID, len(pieces), unkID)
	return m
}

// Status returns the latched construction error, or nil if construction
// succeeded.
func (m *Model) Status() error {
	return m.status
}

// UnkID returns the id of the sole UNKNOWN piece.
func (m *Model) UnkID() int {
	return m.unkID
}

// PieceCount returns the number of pieces in the vocabulary.
func (m *Model) PieceCount() int {
	return len(m.pieces)
}

// IDToPiece returns the byte string for id, or nil if id is out of range.
func (m *Model) IDToPiece(id int) []byte {
	if id < 0 || id >= len(m.pieces) {
		return nil
	}
	return m.pieces[id].Bytes
}

// PieceToID returns the id for p, or UnkID if p names no piece — including
// the empty string — per spec.md §4.3.
func (m *Model) PieceToID(p []byte) int {
	if len(p) == 0 {
		return m.unkID
	}
	key := string(p)
	if id, ok := m.normalToID[key]; ok {
		return id
	}
	if id, ok := m.reservedToID[key]; ok {
		return id
	}
	return m.unkID
}

// NormalPieceID looks p up in the normal-piece table only (NORMAL, UNUSED,
// and USER_DEFINED pieces), never falling back to UnkID and never matching
// a CONTROL/UNKNOWN reserved piece. BpeSegmenter's merge lookup uses this,
// not PieceToID, because a candidate merge must land on an actual
// in-vocabulary normal piece to be worth queuing — mirroring
// bpe::Model::Encode's direct lookup into the `pieces_` map (as opposed to
// `reserved_id_map_`) in _examples/original_source/src/bpe_model.cc.
func (m *Model) NormalPieceID(p []byte) (int, bool) {
	id, ok := m.normalToID[string(p)]
	return id, ok
}

// GetScore returns the score of the piece at id, or 0 if id is out of range.
func (m *Model) GetScore(id int) float32 {
	if id < 0 || id >= len(m.pieces) {
		return 0
	}
	return m.pieces[id].Score
}

func (m *Model) pieceType(id int) PieceType {
	if id < 0 || id >= len(m.pieces) {
		return NormalPiece
	}
	return m.pieces[id].Type
}

// IsUnknown reports whether id names the UNKNOWN piece.
func (m *Model) IsUnknown(id int) bool { return id == m.unkID }

// IsControl reports whether id names a CONTROL piece.
func (m *Model) IsControl(id int) bool { return m.pieceType(id) == ControlPiece }

// IsUnused reports whether id names an UNUSED piece.
func (m *Model) IsUnused(id int) bool { return m.pieceType(id) == UnusedPiece }

// IsUserDefined reports whether id names a USER_DEFINED piece.
func (m *Model) IsUserDefined(id int) bool { return m.pieceType(id) == UserDefinedPiece }

// UserDefinedMatcher returns the PrefixMatcher over USER_DEFINED piece byte
// strings, used by BpeSegmenter to carve out frozen symbols before merging.
func (m *Model) UserDefinedMatcher() *prefixmatcher.PrefixMatcher {
	return m.matcher
}

// UnknownPieceBytes, BOSPieceBytes, EOSPieceBytes and PadPieceBytes expose
// the reserved-symbol strings a caller resolves either from the ModelSpec
// override or the package default, per spec.md §6.
func (m *Model) UnknownPieceBytes() []byte { return []byte(m.spec.unknownOrDefault()) }
func (m *Model) BOSPieceBytes() []byte     { return []byte(m.spec.bosOrDefault()) }
func (m *Model) EOSPieceBytes() []byte     { return []byte(m.spec.eosOrDefault()) }
func (m *Model) PadPieceBytes() []byte     { return []byte(m.spec.padOrDefault()) }

// String implements fmt.Stringer for log lines.
func (m *Model) String() string {
	return fmt.Sprintf("Model(name=%s, pieces=%d, unk_id=%d, build_id=%s)", m.Name, len(m.pieces), m.unkID, m.buildID)
}
