package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func toStrings(segments [][]byte) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = string(s)
	}
	return out
}

func TestSplitIntoWordsPrefixMode(t *testing.T) {
	got := SplitIntoWords([]byte("▁this▁is▁a▁pen"), false)
	assert.Equal(t, []string{"▁this", "▁is", "▁a", "▁pen"}, toStrings(got))
}

func TestSplitIntoWordsSuffixMode(t *testing.T) {
	got := SplitIntoWords([]byte("this▁is▁▁is"), true)
	assert.Equal(t, []string{"this▁", "is▁", "▁", "is"}, toStrings(got))
}

func TestSplitIntoWordsPrefixModeConsecutiveSentinels(t *testing.T) {
	got := SplitIntoWords([]byte("▁this▁▁is"), false)
	assert.Equal(t, []string{"▁this", "▁", "▁is"}, toStrings(got))
}

func TestSplitIntoWordsEmptyInput(t *testing.T) {
	got := SplitIntoWords(nil, false)
	assert.Nil(t, got)
}

func TestSplitIntoWordsRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		text   string
		suffix bool
	}{
		{"▁this▁is▁a▁pen", false},
		{"this▁is▁▁is", true},
		{"▁this▁▁is", false},
		{"noSentinelAtAll", false},
		{"▁", true},
		{"▁▁▁", false},
	} {
		segments := SplitIntoWords([]byte(tc.text), tc.suffix)
		var joined []byte
		for _, s := range segments {
			joined = append(joined, s...)
		}
		assert.Equal(t, tc.text, string(joined), "round-trip failed for %q (suffix=%v)", tc.text, tc.suffix)
	}
}
