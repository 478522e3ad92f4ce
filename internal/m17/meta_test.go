package m17

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaPositionRoundTrip(t *testing.T) {
	orig := MetaPosition{
		Source:    DataSourceGNSSFix,
		Station:   StationMobile,
		Latitude:  42.3601,
		Longitude: -71.0589,
		Altitude:  43,
		Bearing:   275,
		Speed:     88,
	}

	decoded := DecodeMetaPosition(orig.EncodeMeta())

	assert.Equal(t, orig.Source, decoded.Source)
	assert.Equal(t, orig.Station, decoded.Station)
	assert.InDelta(t, orig.Latitude, decoded.Latitude, 1e-4)
	assert.InDelta(t, orig.Longitude, decoded.Longitude, 1e-4)
	assert.Equal(t, orig.Altitude, decoded.Altitude)
	assert.Equal(t, orig.Bearing, decoded.Bearing)
	assert.Equal(t, orig.Speed, decoded.Speed)
}

func TestMetaPositionSouthernHemisphere(t *testing.T) {
	orig := MetaPosition{
		Source:    DataSourceGNSSFix,
		Station:   StationPortable,
		Latitude:  -33.8688,
		Longitude: 151.2093,
		Altitude:  -20,
	}

	decoded := DecodeMetaPosition(orig.EncodeMeta())
	assert.InDelta(t, orig.Latitude, decoded.Latitude, 1e-4)
	assert.InDelta(t, orig.Longitude, decoded.Longitude, 1e-4)
	assert.Equal(t, orig.Altitude, decoded.Altitude)
}

func TestMetaPositionSaturation(t *testing.T) {
	meta := MetaPosition{Speed: 900, Altitude: 80000}.EncodeMeta()
	decoded := DecodeMetaPosition(meta)

	assert.Equal(t, 255, decoded.Speed)
	assert.Equal(t, 65535-1500, decoded.Altitude)
}

func TestMetaExtendedCallsignRoundTrip(t *testing.T) {
	c1, err := NewAddressFromCallsign("W2FBI")
	require.NoError(t, err)
	c2, err := NewAddressFromCallsign("N0CALL")
	require.NoError(t, err)

	orig := MetaExtendedCallsign{Callsign1: c1, Callsign2: c2}
	decoded, err := DecodeMetaExtendedCallsign(orig.EncodeMeta())
	require.NoError(t, err)

	assert.Equal(t, "W2FBI", decoded.Callsign1.Callsign())
	assert.Equal(t, "N0CALL", decoded.Callsign2.Callsign())
}

func TestMetaNonceRoundTrip(t *testing.T) {
	var ctr [10]byte
	copy(ctr[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	orig := MetaNonce{Timestamp: 1700000000, Counter: ctr}
	decoded := DecodeMetaNonce(orig.EncodeMeta())

	assert.Equal(t, orig.Timestamp, decoded.Timestamp)
	assert.Equal(t, orig.Counter, decoded.Counter)
}

func TestMetaNoncePre2020Clamps(t *testing.T) {
	orig := MetaNonce{Timestamp: 100}
	decoded := DecodeMetaNonce(orig.EncodeMeta())
	assert.Equal(t, int64(epoch2020), decoded.Timestamp)
}

func TestMetaAESIVCounterBlock(t *testing.T) {
	var iv [MetaLen]byte
	for i := range iv {
		iv[i] = byte(i)
	}

	meta := MetaAESIV{IV: iv}
	block := meta.CounterBlock(0x1234)

	assert.Equal(t, iv[:], block[:14])
	assert.Equal(t, byte(0x12), block[14])
	assert.Equal(t, byte(0x34), block[15])
}

func TestMetaTextSingleBlock(t *testing.T) {
	block := MetaText{BlockCount: 1, BlockIndex: 1, Text: []byte("Hello")}
	encoded := block.EncodeMeta()

	assert.Equal(t, byte(0x11), encoded[0])
	assert.Equal(t, []byte("Hello"), encoded[1:6])

	decoded := DecodeMetaText(encoded)
	assert.Equal(t, byte(1), decoded.BlockCount)
	assert.Equal(t, byte(1), decoded.BlockIndex)
	assert.Equal(t, []byte("Hello"), decoded.Text)
}

func TestEncodeTextBlocks(t *testing.T) {
	text := "This is a longer text message for testing multi-block encoding"
	blocks, err := EncodeTextBlocks(text)
	require.NoError(t, err)

	wantBlocks := (len(text) + TextBlockLen - 1) / TextBlockLen
	require.Len(t, blocks, wantBlocks)
	for i, b := range blocks {
		assert.Equal(t, byte(wantBlocks), b.BlockCount)
		assert.Equal(t, byte(i+1), b.BlockIndex)
	}

	recovered, err := DecodeTextBlocks(blocks)
	require.NoError(t, err)
	assert.Equal(t, text, recovered)
}

func TestEncodeTextBlocksMaxLength(t *testing.T) {
	blocks, err := EncodeTextBlocks(string(make([]byte, TextMaxLen)))
	require.NoError(t, err)
	assert.Len(t, blocks, TextMaxBlocks)

	_, err = EncodeTextBlocks(string(make([]byte, TextMaxLen+1)))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeTextBlocksRejectsDisorder(t *testing.T) {
	blocks, err := EncodeTextBlocks("a message spanning multiple blocks here")
	require.NoError(t, err)
	require.True(t, len(blocks) >= 3)

	// out of order
	swapped := append([]MetaText{}, blocks...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	_, err = DecodeTextBlocks(swapped)
	assert.ErrorIs(t, err, ErrReassembly)

	// missing block
	_, err = DecodeTextBlocks(blocks[:len(blocks)-1])
	assert.ErrorIs(t, err, ErrReassembly)

	// empty collection
	_, err = DecodeTextBlocks(nil)
	assert.ErrorIs(t, err, ErrReassembly)
}

func TestTextBlocksUTF8(t *testing.T) {
	text := "M17 привет 73!"
	blocks, err := EncodeTextBlocks(text)
	require.NoError(t, err)

	recovered, err := DecodeTextBlocks(blocks)
	require.NoError(t, err)
	assert.Equal(t, text, recovered)
}
