package m17

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAddress(t *testing.T, callsign string) Address {
	t.Helper()
	a, err := NewAddressFromCallsign(callsign)
	require.NoError(t, err)
	return a
}

func TestLSFSerialization(t *testing.T) {
	lsf := NewLSF(mustAddress(t, "W2FBI"), mustAddress(t, "N0CALL"), 0x0005)

	out := lsf.ToBytes()
	require.Len(t, out[:], LSFLen)

	wantCRC := CRC16(out[:LSDLen])
	assert.Equal(t, wantCRC, binary.BigEndian.Uint16(out[LSDLen:]))
}

func TestLSFParseRejectsBadCRC(t *testing.T) {
	lsf := NewLSF(mustAddress(t, "W2FBI"), mustAddress(t, "N0CALL"), 0x0005)
	out := lsf.ToBytes()
	out[0] ^= 0x01

	_, err := ParseLSF(out[:])
	assert.ErrorIs(t, err, ErrCRCMismatch)
}

func TestLSFParseRejectsBadLength(t *testing.T) {
	_, err := ParseLSF(make([]byte, 29))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLSFRoundTripAllMetaVariants(t *testing.T) {
	dst := mustAddress(t, "W2FBI")
	src := mustAddress(t, "N0CALL")

	v3Type := func(meta MetaType) uint16 {
		tf, err := BuildTypeFieldV3(PayloadVoice3200, EncryptionMethodNone, false, meta, 0)
		require.NoError(t, err)
		return tf
	}

	tests := []struct {
		name  string
		build func() LSF
	}{
		{"empty meta", func() LSF {
			return NewLSF(dst, src, 0x0005)
		}},
		{"position", func() LSF {
			l := NewLSF(dst, src, v3Type(MetaGNSSPosition))
			l.SetPosition(MetaPosition{
				Source:    DataSourceGNSSFix,
				Station:   StationMobile,
				Latitude:  40.7128,
				Longitude: -74.006,
				Altitude:  10,
				Bearing:   90,
				Speed:     50,
			})
			return l
		}},
		{"extended callsign", func() LSF {
			l := NewLSF(dst, src, v3Type(MetaExtendedCallsignType))
			l.SetExtendedCallsign(mustAddress(t, "KC1AWV"), mustAddress(t, "W1AW"))
			return l
		}},
		{"nonce", func() LSF {
			enc, err := BuildTypeFieldV2(ModeStream, DataTypeVoice, EncryptionScrambler, SubtypeText, 0)
			require.NoError(t, err)
			l := NewLSF(dst, src, enc)
			l.SetNonce(1700000000, [10]byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0})
			return l
		}},
		{"aes iv", func() LSF {
			tf, err := BuildTypeFieldV3(PayloadVoice3200, EncryptionAES256, false, MetaAESIVType, 0)
			require.NoError(t, err)
			l := NewLSF(dst, src, tf)
			var iv [MetaLen]byte
			for i := range iv {
				iv[i] = byte(0xF0 | i)
			}
			l.SetAESIV(iv)
			return l
		}},
		{"text block", func() LSF {
			l := NewLSF(dst, src, v3Type(MetaTextData))
			l.SetTextBlock(MetaText{BlockCount: 1, BlockIndex: 1, Text: []byte("CQ CQ CQ")})
			return l
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.build()
			out := orig.ToBytes()

			parsed, err := ParseLSF(out[:])
			require.NoError(t, err)
			assert.Equal(t, orig, parsed)
		})
	}
}

func TestLSFDecodeMetaDispatch(t *testing.T) {
	dst := mustAddress(t, "@ALL")
	src := mustAddress(t, "N0CALL")

	tf, err := BuildTypeFieldV3(PayloadVoice3200, EncryptionMethodNone, false, MetaGNSSPosition, 0)
	require.NoError(t, err)
	l := NewLSF(dst, src, tf)
	l.SetPosition(MetaPosition{Latitude: 51.5, Longitude: -0.12})

	meta, err := l.DecodeMeta()
	require.NoError(t, err)
	pos, ok := meta.(MetaPosition)
	require.True(t, ok, "decoded meta is %T", meta)
	assert.InDelta(t, 51.5, pos.Latitude, 1e-4)

	// v2 encrypted frames expose the nonce view
	enc, err := BuildTypeFieldV2(ModeStream, DataTypeVoice, EncryptionScrambler, SubtypeText, 0)
	require.NoError(t, err)
	l2 := NewLSF(dst, src, enc)
	l2.SetNonce(1690000000, [10]byte{1, 2, 3})

	meta2, err := l2.DecodeMeta()
	require.NoError(t, err)
	nonce, ok := meta2.(MetaNonce)
	require.True(t, ok, "decoded meta is %T", meta2)
	assert.Equal(t, int64(1690000000), nonce.Timestamp)
}

func TestLSFChunks(t *testing.T) {
	lsf := NewLSF(mustAddress(t, "W2FBI"), mustAddress(t, "N0CALL"), 0x0005)
	full := lsf.ToBytes()

	chunks := lsf.Chunks()
	for i, c := range chunks {
		assert.Equal(t, byte(i), c.Counter)
		assert.Equal(t, full[i*5:(i+1)*5], c.Data[:])
	}
}

func TestCreateTextMessageFrames(t *testing.T) {
	dst := mustAddress(t, "W2FBI")
	src := mustAddress(t, "N0CALL")

	frames, err := CreateTextMessageFrames(dst, src, "This is a test message that spans multiple frames.")
	require.NoError(t, err)
	require.True(t, len(frames) > 1)

	var blocks []MetaText
	for _, f := range frames {
		assert.Equal(t, VersionV3, f.Version())
		assert.Equal(t, MetaTextData, f.MetaType())

		meta, err := f.DecodeMeta()
		require.NoError(t, err)
		block, ok := meta.(MetaText)
		require.True(t, ok)
		blocks = append(blocks, block)
	}

	text, err := DecodeTextBlocks(blocks)
	require.NoError(t, err)
	assert.Equal(t, "This is a test message that spans multiple frames.", text)
}
