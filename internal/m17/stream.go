package m17

import (
	"encoding/binary"
	"fmt"
)

// eotFlag marks the last frame of a stream in the frame number's top bit.
const eotFlag = 0x8000

// StreamFrame is one RF stream frame: a LICH chunk, a 16-bit frame number
// whose top bit flags end-of-transmission, and 16 payload bytes.
type StreamFrame struct {
	LICH        LICHChunk
	FrameNumber uint16
	Payload     [PayloadLen]byte
}

// NewStreamFrame builds a stream frame. The sequence wraps modulo 2^15;
// eot sets the end-of-transmission flag.
func NewStreamFrame(lich LICHChunk, sequence uint16, payload [PayloadLen]byte, eot bool) StreamFrame {
	fn := sequence & 0x7FFF
	if eot {
		fn |= eotFlag
	}
	return StreamFrame{LICH: lich, FrameNumber: fn, Payload: payload}
}

// IsLast reports the end-of-transmission flag.
func (f StreamFrame) IsLast() bool {
	return f.FrameNumber&eotFlag != 0
}

// Sequence returns the frame counter without the EOT flag.
func (f StreamFrame) Sequence() uint16 {
	return f.FrameNumber & 0x7FFF
}

// DataBytes serializes the 18-byte frame number + payload unit that feeds
// the convolutional encoder.
func (f StreamFrame) DataBytes() [StreamDataLen]byte {
	var out [StreamDataLen]byte
	binary.BigEndian.PutUint16(out[0:2], f.FrameNumber)
	copy(out[2:], f.Payload[:])
	return out
}

// StreamDataFromBytes rebuilds the frame-number/payload unit.
func StreamDataFromBytes(data []byte) (frameNumber uint16, payload [PayloadLen]byte, err error) {
	if len(data) != StreamDataLen {
		return 0, payload, fmt.Errorf("%w: stream data must be %d bytes, got %d", ErrInvalidInput, StreamDataLen, len(data))
	}
	frameNumber = binary.BigEndian.Uint16(data[0:2])
	copy(payload[:], data[2:])
	return frameNumber, payload, nil
}

func (f StreamFrame) String() string {
	eot := ""
	if f.IsLast() {
		eot = " [EOT]"
	}
	return fmt.Sprintf("StreamFrame[%d]%s lich=%d", f.Sequence(), eot, f.LICH.Counter)
}
