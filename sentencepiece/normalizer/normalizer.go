// Package normalizer implements the Unicode-aware, trie-driven
// character-mapping engine described in spec.md §4.2: it rewrites input
// text into a canonical form, escapes whitespace into the sentinel symbol,
// and tracks a byte-level alignment from the normalized form back to the
// original input.
//
// Grounded on Normalizer::Normalize / Normalizer::NormalizePrefix in
// _examples/original_source/src/normalizer.cc, with the byte-trie of
// _examples/other_examples/googleapis-google-cloud-go__prefixmatcher.go
// standing in for the reference implementation's Darts double-array trie.
package normalizer

import (
	"unicode/utf8"

	"k8s.io/klog/v2"

	"github.com/gomlx/go-tokenizer-core/sentencepiece/prefixmatcher"
)

// Sentinel is the three-byte whitespace-boundary marker U+2581 (LOWER ONE
// EIGHTH BLOCK), used both in the vocabulary and in normalized output when
// EscapeWhitespaces is on.
const Sentinel = "\xe2\x96\x81"

// ReplacementChar is emitted in place of a malformed UTF-8 byte sequence.
// The Normalizer advances the input by exactly one byte when this happens,
// so a run of malformed bytes is recovered one byte at a time.
const ReplacementChar = "\xef\xbf\xbd"

// Spec carries the whitespace policy and compiled character map that
// parameterize a Normalizer, mirroring spec.md §3's NormalizerSpec.
type Spec struct {
	// PrecompiledCharsMap is the compiled character-map blob of spec.md
	// §3/§4.2.2. An empty (nil) blob means identity normalization.
	PrecompiledCharsMap     []byte
	EscapeWhitespaces       bool
	RemoveExtraWhitespaces  bool
	AddDummyPrefix          bool
	TreatWhitespaceAsSuffix bool
	// UserDefinedSymbols are matched verbatim ahead of trie lookups and
	// pass through unnormalized (spec.md §4.2.1).
	UserDefinedSymbols []string
}

// Result is the output of Normalize: the normalized bytes and the
// byte-to-byte alignment back to the original input, per spec.md §3's
// "Alignment vector".
type Result struct {
	Normalized []byte
	// Alignment has length len(Normalized)+1; Alignment[i] is the byte
	// offset in the original input at which Normalized[i]'s source
	// character began. The final entry is the end offset of the last
	// consumed input byte.
	Alignment []int
}

// Normalizer applies a Spec's whitespace policy and compiled character map
// to raw text. A constructed Normalizer is immutable and safe for
// concurrent use across goroutines, each driving its own Normalize call.
type Normalizer struct {
	spec    *Spec
	trie    *charTrie // nil for identity normalization
	strings []byte    // normalized-strings region; NUL-terminated entries
	matcher *prefixmatcher.PrefixMatcher
	status  error
}

// New builds a Normalizer from spec. If spec.PrecompiledCharsMap is empty,
// the Normalizer is the identity (per spec.md §4.2, "If the blob is empty,
// the Normalizer is the identity"). A malformed blob latches an
// ErrCorruptCharsMap status; subsequent Normalize calls on this Normalizer
// then return an empty result, matching the "degrade to empty rather than
// raising" propagation policy of spec.md §7. NewProcessor adopts this
// latched status as its own.
func New(spec *Spec) *Normalizer {
	n := &Normalizer{spec: spec, matcher: prefixmatcher.New(spec.UserDefinedSymbols)}
	if len(spec.PrecompiledCharsMap) == 0 {
		klog.V(2).Infof("normalizer: precompiled_charsmap is empty, using identity normalization")
		return n
	}
	trieBytes, normalizedBytes, err := decodeCharsMap(spec.PrecompiledCharsMap)
	if err != nil {
		klog.Errorf("normalizer: %v", err)
		n.status = err
		return n
	}
	n.trie = decodeTrie(trieBytes)
	n.strings = normalizedBytes
	return n
}

// decodeTrie rebuilds a charTrie from its serialized [key\x00value...]*
// encoding produced by EncodeCompiledCharsMap. This is the Go-native stand-in
// for parsing a Darts double-array unit array; see charTrie's doc comment.
func decodeTrie(trieBytes []byte) *charTrie {
	root := newCharTrieNode()
	i := 0
	for i < len(trieBytes) {
		keyEnd := i
		for keyEnd < len(trieBytes) && trieBytes[keyEnd] != 0 {
			keyEnd++
		}
		if keyEnd+5 > len(trieBytes) {
			break // truncated record; ignore trailing garbage
		}
		key := trieBytes[i:keyEnd]
		value := int(trieBytes[keyEnd+1]) | int(trieBytes[keyEnd+2])<<8 | int(trieBytes[keyEnd+3])<<16 | int(trieBytes[keyEnd+4])<<24
		root.insert(key, value)
		i = keyEnd + 5
	}
	return root
}

// Status returns the latched construction error, or nil if construction
// succeeded.
func (n *Normalizer) Status() error {
	return n.status
}

// Normalize implements spec.md §4.2's six-step normalization algorithm.
func (n *Normalizer) Normalize(input string) Result {
	if len(input) == 0 || n.status != nil {
		return Result{Normalized: []byte{}, Alignment: []int{0}}
	}

	in := []byte(input)
	consumed := 0

	// Step 1: leading-space removal.
	if n.spec.RemoveExtraWhitespaces {
		for len(in) > 0 {
			sp, k := n.normalizePrefix(in)
			if sp != " " {
				break
			}
			in = in[k:]
			consumed += k
		}
	}

	if len(in) == 0 {
		return Result{Normalized: []byte{}, Alignment: []int{consumed}}
	}

	normalized := make([]byte, 0, len(in)*3)
	alignment := make([]int, 0, len(in)*3)

	addWS := func() {
		if n.spec.EscapeWhitespaces {
			normalized = append(normalized, Sentinel...)
			for range []byte(Sentinel) {
				alignment = append(alignment, consumed)
			}
		} else {
			normalized = append(normalized, ' ')
			alignment = append(alignment, consumed)
		}
	}

	// Step 2: prefix insertion.
	if n.spec.AddDummyPrefix && !n.spec.TreatWhitespaceAsSuffix {
		addWS()
	}

	// Step 3: body loop.
	isPrevSpace := n.spec.RemoveExtraWhitespaces
	for len(in) > 0 {
		sp, k := n.normalizePrefix(in)

		for isPrevSpace && len(sp) > 0 && sp[0] == ' ' {
			sp = sp[1:]
		}

		if len(sp) > 0 {
			for i := 0; i < len(sp); i++ {
				if n.spec.EscapeWhitespaces && sp[i] == ' ' {
					normalized = append(normalized, Sentinel...)
					for range []byte(Sentinel) {
						alignment = append(alignment, consumed)
					}
				} else {
					normalized = append(normalized, sp[i])
					alignment = append(alignment, consumed)
				}
			}
			isPrevSpace = sp[len(sp)-1] == ' '
		}

		consumed += k
		in = in[k:]
		if !n.spec.RemoveExtraWhitespaces {
			isPrevSpace = false
		}
	}

	// Step 4: trailing-space removal.
	if n.spec.RemoveExtraWhitespaces {
		space := " "
		if n.spec.EscapeWhitespaces {
			space = Sentinel
		}
		for len(normalized) >= len(space) && string(normalized[len(normalized)-len(space):]) == space {
			cut := len(normalized) - len(space)
			consumed = alignment[cut]
			normalized = normalized[:cut]
			alignment = alignment[:cut]
		}
	}

	// Step 5: suffix insertion.
	if n.spec.AddDummyPrefix && n.spec.TreatWhitespaceAsSuffix {
		addWS()
	}

	// Step 6: final alignment sentinel.
	alignment = append(alignment, consumed)

	return Result{Normalized: normalized, Alignment: alignment}
}

// normalizePrefix implements spec.md §4.2.1.
func (n *Normalizer) normalizePrefix(input []byte) (replacement string, consumed int) {
	if len(input) == 0 {
		return "", 0
	}

	if length, found := n.matcher.PrefixMatch(string(input)); found {
		return string(input[:length]), length
	}

	longestLength := 0
	longestValue := 0
	if n.trie != nil {
		for _, r := range n.trie.commonPrefixSearch(input, maxTrieResults) {
			if longestLength == 0 || r.length > longestLength {
				longestLength = r.length
				longestValue = r.value
			}
		}
	}

	if longestLength == 0 {
		r, size := utf8.DecodeRune(input)
		if r == utf8.RuneError && size <= 1 {
			return ReplacementChar, 1
		}
		return string(input[:size]), size
	}

	return nulTerminatedStringAt(n.strings, longestValue), longestLength
}

// nulTerminatedStringAt reads the NUL-terminated UTF-8 string starting at
// offset within buf.
func nulTerminatedStringAt(buf []byte, offset int) string {
	end := offset
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[offset:end])
}

// EncodeCompiledCharsMap serializes a trie's (key -> offset) pairs plus the
// normalized-strings region into the bit-exact blob layout of spec.md
// §4.2.2: [uint32 trie_size_le][trieBytes][normalizedBytes]. It is exposed
// for tests and for callers building a compiled map from an in-memory
// replacement table, since training the map itself is out of scope.
func EncodeCompiledCharsMap(entries map[string]string) []byte {
	var trieBytes []byte
	var stringsBytes []byte
	for key, value := range entries {
		offset := len(stringsBytes)
		stringsBytes = append(stringsBytes, value...)
		stringsBytes = append(stringsBytes, 0)

		trieBytes = append(trieBytes, key...)
		trieBytes = append(trieBytes, 0)
		trieBytes = append(trieBytes,
			byte(offset), byte(offset>>8), byte(offset>>16), byte(offset>>24))
	}
	return encodeCharsMap(trieBytes, stringsBytes)
}
