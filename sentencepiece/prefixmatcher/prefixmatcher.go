// Package prefixmatcher implements a longest-prefix lookup over a fixed set
// of byte strings, used both to carve user-defined symbols out of raw text
// before segmentation and to let the Normalizer pass user-defined symbols
// through verbatim ahead of its character-map trie lookups.
//
// Grounded on the byte-trie shape in
// _examples/other_examples/googleapis-google-cloud-go__prefixmatcher.go and
// the exact PrefixMatcher::PrefixMatch / GlobalReplace semantics in
// _examples/original_source/src/normalizer.cc. The real SentencePiece
// implementation backs this with a Darts double-array trie; a plain
// byte-keyed trie is algorithmically equivalent for a PrefixMatcher-sized
// vocabulary (typically a handful of user-defined symbols) and is the
// "re-implementable but not specified" external dependency spec.md §2 calls
// out for DoubleArrayTrie.
package prefixmatcher

import "unicode/utf8"

type node struct {
	children map[byte]*node
	final    bool
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// PrefixMatcher answers longest-prefix-match queries against a fixed set of
// byte strings. The zero value is not usable; construct with New.
type PrefixMatcher struct {
	root  *node
	empty bool
}

// New builds a PrefixMatcher over dic. An empty set yields a matcher that
// never matches, per spec.md §4.1.
func New(dic []string) *PrefixMatcher {
	pm := &PrefixMatcher{root: newNode(), empty: len(dic) == 0}
	for _, w := range dic {
		pm.insert(w)
	}
	return pm
}

func (pm *PrefixMatcher) insert(w string) {
	if w == "" {
		return
	}
	n := pm.root
	for i := 0; i < len(w); i++ {
		b := w[i]
		child := n.children[b]
		if child == nil {
			child = newNode()
			n.children[b] = child
		}
		n = child
	}
	n.final = true
}

// PrefixMatch returns the length of the longest key that is a prefix of
// input, and whether any key matched at all. If no key matches, length is
// the byte length of the first UTF-8 scalar of input (or len(input) if
// smaller), and found is false. PrefixMatch never returns a length of 0 on
// non-empty input.
func (pm *PrefixMatcher) PrefixMatch(input string) (length int, found bool) {
	if len(input) == 0 {
		return 0, false
	}
	if pm.empty {
		return oneCharLen(input), false
	}
	n := pm.root
	longest := 0
	for i := 0; i < len(input); i++ {
		child := n.children[input[i]]
		if child == nil {
			break
		}
		if child.final {
			longest = i + 1
		}
		n = child
	}
	if longest == 0 {
		return oneCharLen(input), false
	}
	return longest, true
}

// GlobalReplace walks input left to right, replacing every prefix-matched
// key with replacement and copying one UTF-8 scalar verbatim wherever
// nothing matches.
func (pm *PrefixMatcher) GlobalReplace(input, replacement string) string {
	var out []byte
	for len(input) > 0 {
		n, found := pm.PrefixMatch(input)
		if found {
			out = append(out, replacement...)
		} else {
			out = append(out, input[:n]...)
		}
		input = input[n:]
	}
	return string(out)
}

// oneCharLen returns the byte length of the first UTF-8 scalar in s. It
// never returns 0 for a non-empty s: a malformed leading byte still counts
// as length 1.
func oneCharLen(s string) int {
	if len(s) == 0 {
		return 0
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}
