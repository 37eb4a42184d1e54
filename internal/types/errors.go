package types

import "errors"

var (
	// ErrInvalidInput is the only error the core returns to callers.
	ErrInvalidInput = errors.New("invalid input")

	ErrAnalysisUnavailable   = errors.New("analysis unavailable")
	ErrEmptySelection        = errors.New("empty selection")
	ErrMalformedSegmentEntry = errors.New("malformed segment entry")
)
