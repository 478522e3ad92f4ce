package m17

import (
	"fmt"
	"strings"
)

// Address is a 48-bit M17 address: a base-40 callsign, a #-prefixed hash
// address, or the @ALL broadcast. The zero value encodes the empty
// callsign, which is reserved and invalid as a source.
type Address struct {
	value uint64
}

// NewAddressFromCallsign encodes a callsign string. Accepted forms are
// regular callsigns of up to 9 characters from the base-40 alphabet,
// "#"-prefixed hashes of up to 8 characters, and "@ALL".
func NewAddressFromCallsign(callsign string) (Address, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))

	if callsign == "@ALL" {
		return Address{value: BroadcastAddress}, nil
	}

	if strings.HasPrefix(callsign, "#") {
		hash := callsign[1:]
		if len(hash) > 8 {
			return Address{}, fmt.Errorf("%w: hash callsign %q too long, max 8 characters after #", ErrInvalidInput, callsign)
		}
		n, err := encodeBase40(hash)
		if err != nil {
			return Address{}, err
		}
		return Address{value: HashAddressMin + n}, nil
	}

	if len(callsign) > 9 {
		return Address{}, fmt.Errorf("%w: callsign %q too long, max 9 characters", ErrInvalidInput, callsign)
	}
	n, err := encodeBase40(callsign)
	if err != nil {
		return Address{}, err
	}
	return Address{value: n}, nil
}

// NewAddressFromNumeric wraps a raw 48-bit address value.
func NewAddressFromNumeric(n uint64) (Address, error) {
	if n > BroadcastAddress {
		return Address{}, fmt.Errorf("%w: address %#x exceeds 48 bits", ErrInvalidInput, n)
	}
	return Address{value: n}, nil
}

// NewAddressFromBytes decodes the 6-byte big-endian wire form.
func NewAddressFromBytes(b []byte) (Address, error) {
	if len(b) != 6 {
		return Address{}, fmt.Errorf("%w: address must be 6 bytes, got %d", ErrInvalidInput, len(b))
	}
	var n uint64
	for _, by := range b {
		n = n<<8 | uint64(by)
	}
	return Address{value: n}, nil
}

// Numeric returns the 48-bit address value.
func (a Address) Numeric() uint64 {
	return a.value
}

// Bytes returns the 6-byte big-endian wire form.
func (a Address) Bytes() [6]byte {
	var out [6]byte
	v := a.value
	for i := 5; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// Callsign returns the textual form: the decoded callsign, "#"-prefixed
// hash, or "@ALL". Values outside every defined range decode to "".
func (a Address) Callsign() string {
	switch {
	case a.value == BroadcastAddress:
		return "@ALL"
	case a.IsHash():
		return "#" + decodeBase40(a.value-HashAddressMin)
	case a.IsRegular():
		return decodeBase40(a.value)
	default:
		return ""
	}
}

// IsBroadcast reports whether this is the @ALL destination.
func (a Address) IsBroadcast() bool {
	return a.value == BroadcastAddress
}

// IsHash reports whether the value falls in the #-prefixed range.
func (a Address) IsHash() bool {
	return a.value >= HashAddressMin && a.value <= HashAddressMax
}

// IsRegular reports whether the value decodes as a plain callsign.
func (a Address) IsRegular() bool {
	return a.value <= MaxCallsignValue
}

func (a Address) String() string {
	return a.Callsign()
}

func encodeBase40(s string) (uint64, error) {
	var n uint64
	for i := len(s) - 1; i >= 0; i-- {
		idx := strings.IndexByte(CallsignAlphabet, s[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: invalid character %q in callsign", ErrInvalidInput, s[i])
		}
		n = n*40 + uint64(idx)
	}
	return n, nil
}

func decodeBase40(n uint64) string {
	var sb strings.Builder
	for n > 0 {
		sb.WriteByte(CallsignAlphabet[n%40])
		n /= 40
	}
	return strings.TrimRight(sb.String(), " ")
}
