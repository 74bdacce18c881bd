package normalizer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrCorruptCharsMap is the sentinel wrapped by decodeCharsMap failures, so
// callers can test with errors.Is.
var ErrCorruptCharsMap = errors.New("normalizer: corrupt compiled character map")

// encodeCharsMap lays out a compiled character-map blob as
// [uint32 trie_size_le] [trieBytes] [normalizedBytes], per spec.md §4.2.2.
func encodeCharsMap(trieBytes, normalizedBytes []byte) []byte {
	out := make([]byte, 4+len(trieBytes)+len(normalizedBytes))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(trieBytes)))
	copy(out[4:], trieBytes)
	copy(out[4+len(trieBytes):], normalizedBytes)
	return out
}

// decodeCharsMap splits blob back into its trie and normalized-strings
// regions. It fails with ErrCorruptCharsMap when blob is shorter than the
// 4-byte size header or when the declared trie size doesn't fit in the
// remainder — matching Normalizer::DecodePrecompiledCharsMap exactly
// (_examples/original_source/src/normalizer.cc).
func decodeCharsMap(blob []byte) (trieBytes, normalizedBytes []byte, err error) {
	if len(blob) < 4 {
		return nil, nil, errors.Wrap(ErrCorruptCharsMap, "blob shorter than the 4-byte size header")
	}
	trieSize := binary.LittleEndian.Uint32(blob[:4])
	rest := blob[4:]
	if uint64(trieSize) > uint64(len(rest)) {
		return nil, nil, errors.Wrapf(ErrCorruptCharsMap, "declared trie size %d exceeds remaining blob size %d", trieSize, len(rest))
	}
	trieBytes = rest[:trieSize]
	normalizedBytes = rest[trieSize:]
	return trieBytes, normalizedBytes, nil
}
