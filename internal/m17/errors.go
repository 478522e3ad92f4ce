package m17

import "errors"

var (
	// ErrInvalidInput covers malformed callsigns, out-of-range values, and
	// wrong buffer lengths.
	ErrInvalidInput = errors.New("m17: invalid input")

	// ErrCRCMismatch is returned when an LSF, IP frame, or packet checksum
	// does not verify.
	ErrCRCMismatch = errors.New("m17: CRC mismatch")

	// ErrBadMagic is returned when an IP frame does not start with "M17 ".
	ErrBadMagic = errors.New("m17: bad magic")

	// ErrDecodeFailure is returned when the FEC layer cannot recover a
	// valid codeword or trellis path.
	ErrDecodeFailure = errors.New("m17: decode failure")

	// ErrReassembly covers missing, duplicate, or out-of-order packet and
	// LICH chunks.
	ErrReassembly = errors.New("m17: reassembly error")

	// ErrUnsupportedVersion is returned when a caller explicitly opted out
	// of a TYPE field version it then encountered.
	ErrUnsupportedVersion = errors.New("m17: unsupported version")
)
