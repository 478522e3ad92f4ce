package m17

import (
	"bytes"
	"fmt"
)

// Reflector control packets. These ride the same UDP socket as IP frames
// and are distinguished by their four-byte magic.

const (
	MagicCONN = "CONN"
	MagicACKN = "ACKN"
	MagicNACK = "NACK"
	MagicPING = "PING"
	MagicPONG = "PONG"
	MagicDISC = "DISC"
)

// ControlType identifies a parsed control packet.
type ControlType int

const (
	CtrlUnknown ControlType = iota
	CtrlCONN
	CtrlACKN
	CtrlNACK
	CtrlPING
	CtrlPONG
	CtrlDISC
)

// ControlPacket is a parsed reflector control packet. From is the zero
// Address for the types that carry no callsign.
type ControlPacket struct {
	Type   ControlType
	From   Address
	Module byte
}

// ParseControlPacket decodes a reflector control packet.
func ParseControlPacket(data []byte) (ControlPacket, error) {
	if len(data) < 4 {
		return ControlPacket{}, fmt.Errorf("%w: control packet too short", ErrInvalidInput)
	}

	magic := string(data[:4])
	switch magic {
	case MagicCONN:
		if len(data) < 11 {
			return ControlPacket{}, fmt.Errorf("%w: invalid CONN length %d", ErrInvalidInput, len(data))
		}
		from, err := NewAddressFromBytes(data[4:10])
		if err != nil {
			return ControlPacket{}, err
		}
		return ControlPacket{Type: CtrlCONN, From: from, Module: data[10]}, nil

	case MagicACKN:
		return ControlPacket{Type: CtrlACKN}, nil

	case MagicNACK:
		return ControlPacket{Type: CtrlNACK}, nil

	case MagicPING, MagicPONG, MagicDISC:
		typ := map[string]ControlType{
			MagicPING: CtrlPING,
			MagicPONG: CtrlPONG,
			MagicDISC: CtrlDISC,
		}[magic]
		if magic == MagicDISC && len(data) == 4 {
			return ControlPacket{Type: CtrlDISC}, nil
		}
		if len(data) < 10 {
			return ControlPacket{}, fmt.Errorf("%w: invalid %s length %d", ErrInvalidInput, magic, len(data))
		}
		from, err := NewAddressFromBytes(data[4:10])
		if err != nil {
			return ControlPacket{}, err
		}
		return ControlPacket{Type: typ, From: from}, nil

	default:
		return ControlPacket{}, fmt.Errorf("%w: unknown control magic %q", ErrInvalidInput, magic)
	}
}

// BuildCONN builds the connect request for a reflector module.
func BuildCONN(from Address, module byte) []byte {
	return append(buildControlPacket(MagicCONN, from), module)
}

// BuildPONG answers a reflector PING.
func BuildPONG(from Address) []byte {
	return buildControlPacket(MagicPONG, from)
}

// BuildDISC announces a disconnect.
func BuildDISC(from Address) []byte {
	return buildControlPacket(MagicDISC, from)
}

func buildControlPacket(magic string, from Address) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	addr := from.Bytes()
	buf.Write(addr[:])
	return buf.Bytes()
}
