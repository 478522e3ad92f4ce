package m17

import (
	"encoding/binary"
	"fmt"
)

// IPFrame is the 54-byte M17-over-IP encapsulation: magic, stream id, the
// LSF without its CRC, the 18-byte stream data unit, and a CRC over
// everything after the magic.
type IPFrame struct {
	StreamID    uint16
	LSF         LSF
	FrameNumber uint16
	Payload     [PayloadLen]byte
}

// NewIPFrame assembles a frame for transmission.
func NewIPFrame(dst, src Address, streamID uint16, typeField uint16, sequence uint16, payload [PayloadLen]byte, eot bool) IPFrame {
	fn := sequence & 0x7FFF
	if eot {
		fn |= eotFlag
	}
	return IPFrame{
		StreamID:    streamID,
		LSF:         NewLSF(dst, src, typeField),
		FrameNumber: fn,
		Payload:     payload,
	}
}

// IsLast reports the end-of-transmission flag.
func (f IPFrame) IsLast() bool {
	return f.FrameNumber&eotFlag != 0
}

// Bytes serializes the 54-byte wire form.
func (f IPFrame) Bytes() [IPFrameLen]byte {
	var out [IPFrameLen]byte
	copy(out[0:4], IPMagic)
	binary.BigEndian.PutUint16(out[4:6], f.StreamID)
	lsd := f.LSF.ToLSDBytes()
	copy(out[6:34], lsd[:])
	binary.BigEndian.PutUint16(out[34:36], f.FrameNumber)
	copy(out[36:52], f.Payload[:])
	binary.BigEndian.PutUint16(out[52:54], CRC16(out[4:52]))
	return out
}

// ParseIPFrame validates the magic and CRC and rebuilds the frame. The
// embedded LSF is re-exposed as if it carried its own CRC.
func ParseIPFrame(data []byte) (IPFrame, error) {
	if len(data) != IPFrameLen {
		return IPFrame{}, fmt.Errorf("%w: IP frame must be %d bytes, got %d", ErrInvalidInput, IPFrameLen, len(data))
	}
	if string(data[0:4]) != IPMagic {
		return IPFrame{}, fmt.Errorf("%w: got %q", ErrBadMagic, data[0:4])
	}
	if CRC16(data[4:52]) != binary.BigEndian.Uint16(data[52:54]) {
		return IPFrame{}, fmt.Errorf("%w: IP frame checksum failed", ErrCRCMismatch)
	}

	lsf, err := ParseLSF(data[6:34])
	if err != nil {
		return IPFrame{}, err
	}

	f := IPFrame{
		StreamID:    binary.BigEndian.Uint16(data[4:6]),
		LSF:         lsf,
		FrameNumber: binary.BigEndian.Uint16(data[34:36]),
	}
	copy(f.Payload[:], data[36:52])
	return f, nil
}

// IsIPFrame reports whether data begins with the M17 magic.
func IsIPFrame(data []byte) bool {
	return len(data) >= 4 && string(data[0:4]) == IPMagic
}

func (f IPFrame) String() string {
	return fmt.Sprintf("IPFrame[sid=%#04x] %s -> %s fn=%d", f.StreamID, f.LSF.Src.Callsign(), f.LSF.Dst.Callsign(), f.FrameNumber&0x7FFF)
}
