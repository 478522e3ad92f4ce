package m17

import (
	"encoding/binary"
	"fmt"
)

// LSF is the 30-byte Link Setup Frame: DST, SRC, TYPE, META, CRC. The META
// bytes are kept raw and interpreted on demand through the TYPE field.
type LSF struct {
	Dst  Address
	Src  Address
	Type uint16
	Meta [MetaLen]byte
}

// NewLSF builds a link setup frame with an empty META field.
func NewLSF(dst, src Address, typeField uint16) LSF {
	return LSF{Dst: dst, Src: src, Type: typeField}
}

// NewLSFForCallsigns is a convenience wrapper encoding both callsigns.
func NewLSFForCallsigns(dst, src string, typeField uint16) (LSF, error) {
	d, err := NewAddressFromCallsign(dst)
	if err != nil {
		return LSF{}, fmt.Errorf("bad dst callsign: %w", err)
	}
	s, err := NewAddressFromCallsign(src)
	if err != nil {
		return LSF{}, fmt.Errorf("bad src callsign: %w", err)
	}
	return NewLSF(d, s, typeField), nil
}

// SetMeta installs a decoded META view.
func (l *LSF) SetMeta(m Meta) {
	l.Meta = m.EncodeMeta()
}

// SetPosition installs a GNSS position META.
func (l *LSF) SetPosition(p MetaPosition) {
	l.SetMeta(p)
}

// SetExtendedCallsign installs the two extra routing callsigns.
func (l *LSF) SetExtendedCallsign(c1, c2 Address) {
	l.SetMeta(MetaExtendedCallsign{Callsign1: c1, Callsign2: c2})
}

// SetNonce installs the encryption nonce.
func (l *LSF) SetNonce(timestamp int64, counter [10]byte) {
	l.SetMeta(MetaNonce{Timestamp: timestamp, Counter: counter})
}

// SetAESIV installs the 14-byte AES initialization vector.
func (l *LSF) SetAESIV(iv [MetaLen]byte) {
	l.SetMeta(MetaAESIV{IV: iv})
}

// SetTextBlock installs one block of a multi-block text message.
func (l *LSF) SetTextBlock(block MetaText) {
	l.SetMeta(block)
}

// Version reports the TYPE field layout in use.
func (l LSF) Version() Version {
	return DetectVersion(l.Type)
}

// ToLSDBytes serializes the frame without its CRC (the form embedded in IP
// frames).
func (l LSF) ToLSDBytes() [LSDLen]byte {
	var out [LSDLen]byte
	dst := l.Dst.Bytes()
	src := l.Src.Bytes()
	copy(out[0:6], dst[:])
	copy(out[6:12], src[:])
	binary.BigEndian.PutUint16(out[12:14], l.Type)
	copy(out[14:28], l.Meta[:])
	return out
}

// ToBytes serializes the frame and appends the CRC.
func (l LSF) ToBytes() [LSFLen]byte {
	var out [LSFLen]byte
	lsd := l.ToLSDBytes()
	copy(out[:LSDLen], lsd[:])
	binary.BigEndian.PutUint16(out[LSDLen:], CRC16(lsd[:]))
	return out
}

// ParseLSF parses a 28-byte LSD or a 30-byte LSF. The 30-byte form must
// checksum correctly.
func ParseLSF(data []byte) (LSF, error) {
	switch len(data) {
	case LSDLen:
	case LSFLen:
		if !VerifyCRC(data) {
			return LSF{}, fmt.Errorf("%w: LSF checksum failed", ErrCRCMismatch)
		}
		data = data[:LSDLen]
	default:
		return LSF{}, fmt.Errorf("%w: LSF must be %d or %d bytes, got %d", ErrInvalidInput, LSDLen, LSFLen, len(data))
	}

	dst, err := NewAddressFromBytes(data[0:6])
	if err != nil {
		return LSF{}, err
	}
	src, err := NewAddressFromBytes(data[6:12])
	if err != nil {
		return LSF{}, err
	}

	l := LSF{
		Dst:  dst,
		Src:  src,
		Type: binary.BigEndian.Uint16(data[12:14]),
	}
	copy(l.Meta[:], data[14:28])
	return l, nil
}

// MetaType derives the META interpretation from the TYPE field, using the
// layout the version probe selects.
func (l LSF) MetaType() MetaType {
	switch l.Version() {
	case VersionV3:
		return ParseTypeFieldV3(l.Type).Meta
	default:
		tf := ParseTypeFieldV2(l.Type)
		if tf.EncryptionType != EncryptionNone {
			return MetaNonceType
		}
		switch tf.EncryptionSubtype {
		case SubtypeText:
			return MetaTextData
		case SubtypeGNSS:
			return MetaGNSSPosition
		case SubtypeExtendedCallsign:
			return MetaExtendedCallsignType
		default:
			return MetaNone
		}
	}
}

// DecodeMeta returns the decoded META view selected by the TYPE field.
// Unrecognized tags decode as MetaRaw.
func (l LSF) DecodeMeta() (Meta, error) {
	switch l.MetaType() {
	case MetaNonceType:
		return DecodeMetaNonce(l.Meta), nil
	case MetaGNSSPosition:
		return DecodeMetaPosition(l.Meta), nil
	case MetaExtendedCallsignType:
		return DecodeMetaExtendedCallsign(l.Meta)
	case MetaTextData:
		return DecodeMetaText(l.Meta), nil
	case MetaAESIVType:
		return DecodeMetaAESIV(l.Meta), nil
	case MetaNone:
		return MetaRaw(l.Meta), nil
	default:
		return MetaRaw(l.Meta), nil
	}
}

// Chunks splits the 240-bit serialized frame (CRC included) into the six
// 40-bit LICH chunks, tagged 0 through 5.
func (l LSF) Chunks() [LICHChunkCount]LICHChunk {
	var chunks [LICHChunkCount]LICHChunk
	full := l.ToBytes()
	for i := 0; i < LICHChunkCount; i++ {
		var c LICHChunk
		copy(c.Data[:], full[i*5:(i+1)*5])
		c.Counter = byte(i)
		chunks[i] = c
	}
	return chunks
}

// CreateTextMessageFrames fragments a UTF-8 message into consecutive LSFs
// carrying v3 text META blocks.
func CreateTextMessageFrames(dst, src Address, text string) ([]LSF, error) {
	blocks, err := EncodeTextBlocks(text)
	if err != nil {
		return nil, err
	}

	typeField, err := BuildTypeFieldV3(PayloadDataOnly, EncryptionMethodNone, false, MetaTextData, 0)
	if err != nil {
		return nil, err
	}

	frames := make([]LSF, 0, len(blocks))
	for _, b := range blocks {
		l := NewLSF(dst, src, typeField)
		l.SetTextBlock(b)
		frames = append(frames, l)
	}
	return frames, nil
}

func (l LSF) String() string {
	return fmt.Sprintf("LSF: %s -> %s [type=%#04x]", l.Src.Callsign(), l.Dst.Callsign(), l.Type)
}
