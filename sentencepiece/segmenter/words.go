package segmenter

import "github.com/gomlx/go-tokenizer-core/sentencepiece/normalizer"

const sentinelLen = len(normalizer.Sentinel)

// SplitIntoWords implements spec.md §4.6: it splits text at the whitespace
// sentinel. With addWSAsSuffix false (the default), each segment starts
// with the sentinel (if present); with it true, each segment ends with the
// sentinel. Runs of consecutive sentinels yield length-one sentinel-only
// segments. Empty input yields an empty (nil) slice.
func SplitIntoWords(text []byte, addWSAsSuffix bool) [][]byte {
	if len(text) == 0 {
		return nil
	}
	if addWSAsSuffix {
		return splitSuffixMode(text)
	}
	return splitPrefixMode(text)
}

func splitPrefixMode(text []byte) [][]byte {
	var out [][]byte
	i := 0
	for i < len(text) {
		start := i
		if hasSentinelAt(text, i) {
			i += sentinelLen
			// A sentinel not immediately followed by another sentinel
			// continues to absorb non-sentinel bytes into this segment;
			// back-to-back sentinels each become their own segment.
			if !hasSentinelAt(text, i) {
				for i < len(text) && !hasSentinelAt(text, i) {
					i++
				}
			}
		} else {
			for i < len(text) && !hasSentinelAt(text, i) {
				i++
			}
		}
		out = append(out, text[start:i])
	}
	return out
}

func splitSuffixMode(text []byte) [][]byte {
	var out [][]byte
	i := 0
	for i < len(text) {
		start := i
		if hasSentinelAt(text, i) {
			out = append(out, text[start:i+sentinelLen])
			i += sentinelLen
			continue
		}
		for i < len(text) && !hasSentinelAt(text, i) {
			i++
		}
		if hasSentinelAt(text, i) {
			i += sentinelLen
		}
		out = append(out, text[start:i])
	}
	return out
}

func hasSentinelAt(text []byte, i int) bool {
	if i+sentinelLen > len(text) {
		return false
	}
	return string(text[i:i+sentinelLen]) == normalizer.Sentinel
}
