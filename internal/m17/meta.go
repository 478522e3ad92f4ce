package m17

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Decoded views of the 14-byte META field. The view in effect is selected
// by the TYPE field; see LSF.DecodeMeta.

// Meta is the sum of the decoded META variants.
type Meta interface {
	// EncodeMeta serializes the variant into the 14-byte wire form.
	EncodeMeta() [MetaLen]byte
}

// MetaRaw carries a META payload with no defined interpretation.
type MetaRaw [MetaLen]byte

func (m MetaRaw) EncodeMeta() [MetaLen]byte { return m }

// GNSS position META

// DataSource identifies where a position fix came from.
type DataSource byte

const (
	DataSourceNone DataSource = iota
	DataSourceGNSSFix
	DataSourceGNSSDeadReckoning
	DataSourceGNSSLastKnown
	DataSourceUserInput
	DataSourceExternal
)

// StationType identifies the transmitting station class.
type StationType byte

const (
	StationFixed StationType = iota
	StationMobile
	StationPortable
)

const (
	latScale = 180.0 / (1 << 23) // degrees per LSB
	lonScale = 360.0 / (1 << 23)
	altBias  = 1500 // metres added before encoding
)

// MetaPosition is the GNSS position META view: 24-bit fixed-point latitude
// and longitude, biased altitude, bearing, and saturating speed.
type MetaPosition struct {
	Source    DataSource
	Station   StationType
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Altitude  int     // metres above MSL
	Bearing   uint16  // degrees, 0-359
	Speed     int     // km/h, saturates at 255
}

func (m MetaPosition) EncodeMeta() [MetaLen]byte {
	var out [MetaLen]byte

	out[0] = byte(m.Source)
	out[1] = byte(m.Station)

	putFixed24(out[2:5], m.Latitude/latScale)
	putFixed24(out[5:8], m.Longitude/lonScale)

	alt := m.Altitude + altBias
	if alt < 0 {
		alt = 0
	} else if alt > math.MaxUint16 {
		alt = math.MaxUint16
	}
	binary.BigEndian.PutUint16(out[8:10], uint16(alt))

	binary.BigEndian.PutUint16(out[10:12], m.Bearing%360)

	speed := m.Speed
	if speed < 0 {
		speed = 0
	} else if speed > 255 {
		speed = 255
	}
	out[12] = byte(speed)

	return out
}

// DecodeMetaPosition reads the GNSS position view from META bytes.
func DecodeMetaPosition(meta [MetaLen]byte) MetaPosition {
	return MetaPosition{
		Source:    DataSource(meta[0]),
		Station:   StationType(meta[1]),
		Latitude:  float64(getFixed24(meta[2:5])) * latScale,
		Longitude: float64(getFixed24(meta[5:8])) * lonScale,
		Altitude:  int(binary.BigEndian.Uint16(meta[8:10])) - altBias,
		Bearing:   binary.BigEndian.Uint16(meta[10:12]),
		Speed:     int(meta[12]),
	}
}

func putFixed24(out []byte, v float64) {
	scaled := int32(math.Round(v))
	if scaled > 1<<23-1 {
		scaled = 1<<23 - 1
	} else if scaled < -(1 << 23) {
		scaled = -(1 << 23)
	}
	u := uint32(scaled) & 0xFFFFFF
	out[0] = byte(u >> 16)
	out[1] = byte(u >> 8)
	out[2] = byte(u)
}

func getFixed24(in []byte) int32 {
	u := uint32(in[0])<<16 | uint32(in[1])<<8 | uint32(in[2])
	if u&0x800000 != 0 {
		u |= 0xFF000000
	}
	return int32(u)
}

// Extended callsign META

// MetaExtendedCallsign carries two additional routing callsigns.
type MetaExtendedCallsign struct {
	Callsign1 Address
	Callsign2 Address
}

func (m MetaExtendedCallsign) EncodeMeta() [MetaLen]byte {
	var out [MetaLen]byte
	c1 := m.Callsign1.Bytes()
	c2 := m.Callsign2.Bytes()
	copy(out[0:6], c1[:])
	copy(out[6:12], c2[:])
	return out
}

// DecodeMetaExtendedCallsign reads the extended callsign view.
func DecodeMetaExtendedCallsign(meta [MetaLen]byte) (MetaExtendedCallsign, error) {
	c1, err := NewAddressFromBytes(meta[0:6])
	if err != nil {
		return MetaExtendedCallsign{}, err
	}
	c2, err := NewAddressFromBytes(meta[6:12])
	if err != nil {
		return MetaExtendedCallsign{}, err
	}
	return MetaExtendedCallsign{Callsign1: c1, Callsign2: c2}, nil
}

// Nonce META

// epoch2020 is the offset from the Unix epoch to 2020-01-01T00:00:00Z; the
// nonce timestamp counts seconds from there.
const epoch2020 = 1577836800

// MetaNonce carries the scrambler/AES nonce: a 2020-epoch timestamp plus
// ten bytes of counter state.
type MetaNonce struct {
	Timestamp int64 // Unix seconds
	Counter   [10]byte
}

func (m MetaNonce) EncodeMeta() [MetaLen]byte {
	var out [MetaLen]byte
	ts := m.Timestamp - epoch2020
	if ts < 0 {
		ts = 0
	}
	binary.BigEndian.PutUint32(out[0:4], uint32(ts))
	copy(out[4:14], m.Counter[:])
	return out
}

// DecodeMetaNonce reads the nonce view.
func DecodeMetaNonce(meta [MetaLen]byte) MetaNonce {
	n := MetaNonce{
		Timestamp: int64(binary.BigEndian.Uint32(meta[0:4])) + epoch2020,
	}
	copy(n.Counter[:], meta[4:14])
	return n
}

// AES IV META (v3)

// MetaAESIV carries the 14-byte AES initialization vector. The stream
// frame number fills the low two bytes of the 16-byte CTR block.
type MetaAESIV struct {
	IV [MetaLen]byte
}

func (m MetaAESIV) EncodeMeta() [MetaLen]byte { return m.IV }

// CounterBlock assembles the 16-byte AES-CTR counter for a frame.
func (m MetaAESIV) CounterBlock(frameNumber uint16) [16]byte {
	var block [16]byte
	copy(block[:MetaLen], m.IV[:])
	binary.BigEndian.PutUint16(block[14:16], frameNumber)
	return block
}

// DecodeMetaAESIV reads the AES IV view.
func DecodeMetaAESIV(meta [MetaLen]byte) MetaAESIV {
	return MetaAESIV{IV: meta}
}

// Text META (v3)

const (
	// TextBlockLen is the text capacity of one META block.
	TextBlockLen = 13
	// TextMaxBlocks bounds a multi-block message (4-bit block count).
	TextMaxBlocks = 15
	// TextMaxLen is the UTF-8 byte capacity of a full message.
	TextMaxLen = TextBlockLen * TextMaxBlocks
)

// MetaText is one block of a multi-block UTF-8 message. The control byte
// packs the total block count in the high nibble and the 1-based block
// index in the low nibble.
type MetaText struct {
	BlockCount byte
	BlockIndex byte
	Text       []byte // up to 13 bytes
}

func (m MetaText) EncodeMeta() [MetaLen]byte {
	var out [MetaLen]byte
	out[0] = m.BlockCount<<4 | m.BlockIndex&0x0F
	copy(out[1:], m.Text)
	return out
}

// DecodeMetaText reads one text block view.
func DecodeMetaText(meta [MetaLen]byte) MetaText {
	return MetaText{
		BlockCount: meta[0] >> 4,
		BlockIndex: meta[0] & 0x0F,
		Text:       bytes.TrimRight(meta[1:], "\x00"),
	}
}

// EncodeTextBlocks fragments a UTF-8 message into META text blocks. The
// message may occupy at most 195 bytes.
func EncodeTextBlocks(text string) ([]MetaText, error) {
	data := []byte(text)
	if len(data) > TextMaxLen {
		return nil, fmt.Errorf("%w: text message is %d bytes, max %d", ErrInvalidInput, len(data), TextMaxLen)
	}

	count := (len(data) + TextBlockLen - 1) / TextBlockLen
	if count == 0 {
		count = 1
	}

	blocks := make([]MetaText, 0, count)
	for i := 0; i < count; i++ {
		end := (i + 1) * TextBlockLen
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, MetaText{
			BlockCount: byte(count),
			BlockIndex: byte(i + 1),
			Text:       data[i*TextBlockLen : end],
		})
	}
	return blocks, nil
}

// DecodeTextBlocks reassembles a message from consecutive text blocks.
// Blocks must agree on the count and arrive in index order with none
// missing; anything else invalidates the collection.
func DecodeTextBlocks(blocks []MetaText) (string, error) {
	if len(blocks) == 0 {
		return "", fmt.Errorf("%w: no text blocks", ErrReassembly)
	}

	count := blocks[0].BlockCount
	if count == 0 || count > TextMaxBlocks {
		return "", fmt.Errorf("%w: invalid block count %d", ErrReassembly, count)
	}
	if len(blocks) != int(count) {
		return "", fmt.Errorf("%w: have %d blocks, control byte says %d", ErrReassembly, len(blocks), count)
	}

	var out bytes.Buffer
	for i, b := range blocks {
		if b.BlockCount != count {
			return "", fmt.Errorf("%w: block count changed mid-message", ErrReassembly)
		}
		if b.BlockIndex != byte(i+1) {
			return "", fmt.Errorf("%w: block index %d out of order, want %d", ErrReassembly, b.BlockIndex, i+1)
		}
		out.Write(b.Text)
	}
	return out.String(), nil
}
