package fec

import "errors"

var (
	// ErrDecodeFailure is returned when a codeword or trellis path cannot
	// be recovered within the code's correction capability.
	ErrDecodeFailure = errors.New("fec: decode failure")

	// ErrInvalidLength is returned for inputs whose size does not match
	// the fixed frame geometry.
	ErrInvalidLength = errors.New("fec: invalid input length")
)
