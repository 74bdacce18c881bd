// Package api defines the tokenizer contract shared by every engine under
// tokenizers/. It exists to break the cyclic dependency between a concrete
// engine (e.g. tokenizers/sentencepiece) and callers that only want to
// depend on the interface.
package api

// TokenSpan represents the byte span of a token in the original text.
// Start and End are byte offsets (not rune offsets), suitable for slicing
// Go strings directly: originalText[span.Start:span.End].
// This is useful for token classification tasks (NER, chunking) where you need
// to map token predictions back to positions in the original text.
type TokenSpan struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// EncodingResult contains tokens with their spans in the original text.
type EncodingResult struct {
	IDs   []int       // token IDs
	Spans []TokenSpan // byte spans for each token (use originalText[span.Start:span.End] to extract)
}

// Tokenizer converts text to token ids and back.
//
// It also maps special tokens: tokens with a common semantic (like padding) that
// may map to different ids for different vocabularies.
type Tokenizer interface {
	Encode(text string) []int
	Decode([]int) string

	// SpecialTokenID returns ID for given special token if registered, or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// TokenizerWithSpans extends Tokenizer with span tracking capability.
// This is useful for token classification tasks (NER, chunking) where you need
// to map token predictions back to byte positions in the original text.
type TokenizerWithSpans interface {
	Tokenizer
	// EncodeWithSpans returns tokens along with their byte spans in the original text.
	EncodeWithSpans(text string) EncodingResult
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSpecialTokensCount
)

var specialTokenNames = [TokSpecialTokensCount]string{
	TokBeginningOfSentence: "beginning_of_sentence",
	TokEndOfSentence:       "end_of_sentence",
	TokUnknown:             "unknown",
	TokPad:                 "pad",
	TokMask:                "mask",
	TokClassification:      "classification",
}

// String returns the snake_case name used in error messages and logging.
func (t SpecialToken) String() string {
	if t < 0 || t >= TokSpecialTokensCount {
		return "unknown_special_token"
	}
	return specialTokenNames[t]
}
