package sentencepiece

import "github.com/pkg/errors"

// Status classifies the error kinds that can be latched onto a Model or
// Normalizer at construction time. Once latched, a Status is permanent for
// the lifetime of the object: subsequent Encode calls degrade to an empty
// result rather than propagating the error, per the "construction-time
// errors are latched" propagation policy.
type Status int

const (
	// OK means construction succeeded and Encode may proceed normally.
	OK Status = iota
	// StatusConfigError means the Model was built from an invalid piece
	// list (duplicate piece, empty piece, zero or multiple UNKNOWNs).
	StatusConfigError
	// StatusInternalError means a compiled character-map blob was
	// corrupt (too short, or a declared trie size that doesn't fit).
	StatusInternalError
)

// ErrConfig wraps a construction-time configuration failure. Use
// errors.Is(err, ErrConfig) to test for this class of error.
var ErrConfig = errors.New("sentencepiece: config error")

// ErrInternal wraps a corrupt-input failure that is not the caller's model
// configuration but a malformed serialized blob.
var ErrInternal = errors.New("sentencepiece: internal error")

// ErrNotFound is returned by spec-field lookups (trainer/normalizer arg
// merging) when a key names no known field. It has no bearing on Encode.
var ErrNotFound = errors.New("sentencepiece: field not found")

// configError wraps a formatted reason as an ErrConfig-classed error whose
// Unwrap chain lets callers use errors.Is(err, ErrConfig).
func configError(format string, args ...any) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

// internalError wraps a formatted reason as an ErrInternal-classed error.
func internalError(format string, args ...any) error {
	return errors.Wrapf(ErrInternal, format, args...)
}
