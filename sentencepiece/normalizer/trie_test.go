package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharTrieCommonPrefixSearch(t *testing.T) {
	root := newCharTrieNode()
	root.insert([]byte("a"), 1)
	root.insert([]byte("ab"), 2)
	root.insert([]byte("abc"), 3)

	results := root.commonPrefixSearch([]byte("abcd"), maxTrieResults)
	assert.Equal(t, []trieResult{
		{length: 1, value: 1},
		{length: 2, value: 2},
		{length: 3, value: 3},
	}, results)
}

func TestCharTrieCommonPrefixSearchNoMatch(t *testing.T) {
	root := newCharTrieNode()
	root.insert([]byte("xyz"), 1)
	results := root.commonPrefixSearch([]byte("abc"), maxTrieResults)
	assert.Empty(t, results)
}

func TestCharTrieInsertOverwrites(t *testing.T) {
	root := newCharTrieNode()
	root.insert([]byte("a"), 1)
	root.insert([]byte("a"), 2)
	results := root.commonPrefixSearch([]byte("a"), maxTrieResults)
	assert.Equal(t, []trieResult{{length: 1, value: 2}}, results)
}

func TestCharTrieMaxResultsCap(t *testing.T) {
	root := newCharTrieNode()
	input := make([]byte, 0, 5)
	for i := 0; i < 5; i++ {
		input = append(input, 'a')
		root.insert(append([]byte{}, input...), i)
	}
	results := root.commonPrefixSearch(input, 2)
	assert.Len(t, results, 2)
}
