package m17

import (
	"fmt"
	"strings"
)

// Two-Line Element sets travel as packets with ProtocolTLE: satellite name
// and both element lines joined by newlines and null-terminated.

const (
	tleLineLen    = 69
	tleMaxNameLen = 24
)

// TLEPacket carries satellite orbital elements.
type TLEPacket struct {
	Name  string
	Line1 string
	Line2 string
}

// ToPacket normalizes and encodes the TLE as a packet. The name is limited
// to 24 characters and both element lines are space-padded to 69; lines
// longer than the standard length are rejected.
func (t TLEPacket) ToPacket() (Packet, error) {
	if len(t.Name) > tleMaxNameLen {
		return Packet{}, fmt.Errorf("%w: satellite name %q longer than %d characters", ErrInvalidInput, t.Name, tleMaxNameLen)
	}
	line1, err := padTLELine(t.Line1)
	if err != nil {
		return Packet{}, err
	}
	line2, err := padTLELine(t.Line2)
	if err != nil {
		return Packet{}, err
	}

	text := t.Name + "\n" + line1 + "\n" + line2 + "\x00"
	return NewPacket(ProtocolTLE, []byte(text))
}

func padTLELine(line string) (string, error) {
	if len(line) > tleLineLen {
		return "", fmt.Errorf("%w: TLE line is %d characters, standard length is %d", ErrInvalidInput, len(line), tleLineLen)
	}
	return line + strings.Repeat(" ", tleLineLen-len(line)), nil
}

// TLEFromPacket parses a TLE packet. Non-standard element line lengths are
// rejected.
func TLEFromPacket(p Packet) (TLEPacket, error) {
	if p.Protocol != ProtocolTLE {
		return TLEPacket{}, fmt.Errorf("%w: protocol id %s, want %s", ErrInvalidInput, p.Protocol, ProtocolTLE)
	}

	text := strings.TrimSuffix(string(p.Payload), "\x00")
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		return TLEPacket{}, fmt.Errorf("%w: TLE payload has %d lines, want 3", ErrInvalidInput, len(lines))
	}
	if len(lines[1]) != tleLineLen || len(lines[2]) != tleLineLen {
		return TLEPacket{}, fmt.Errorf("%w: non-standard TLE line length", ErrInvalidInput)
	}

	return TLEPacket{
		Name:  strings.TrimRight(lines[0], " "),
		Line1: strings.TrimRight(lines[1], " "),
		Line2: strings.TrimRight(lines[2], " "),
	}, nil
}

// Valid reports whether the element lines look like a standard TLE.
func (t TLEPacket) Valid() bool {
	return len(t.Line1) == tleLineLen &&
		len(t.Line2) == tleLineLen &&
		strings.HasPrefix(t.Line1, "1 ") &&
		strings.HasPrefix(t.Line2, "2 ")
}
