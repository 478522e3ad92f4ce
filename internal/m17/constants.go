package m17

// Sync words, transmitted big-endian ahead of each RF frame payload.
const (
	LSFSync    uint16 = 0x55F7
	StreamSync uint16 = 0xFF5D
	PacketSync uint16 = 0x75FF
	BERTSync   uint16 = 0xDF55
	EOTMarker  uint16 = 0x555D
)

// Frame geometry.
const (
	LSFLen        = 30 // DST + SRC + TYPE + META + CRC
	LSDLen        = 28 // LSF without CRC
	MetaLen       = 14
	PayloadLen    = 16 // stream payload bytes
	StreamDataLen = 18 // frame number + payload
	IPFrameLen    = 54
	CRCLen        = 2

	LICHChunkLen   = 6 // 40 LSF bits + 3-bit counter + padding
	LICHChunkCount = 6

	PacketChunkLen     = 26 // 25 data bytes + metadata byte
	PacketChunkDataLen = 25
	PacketMaxChunks    = 33

	BERTBits = 197
)

// M17-over-IP.
const (
	IPMagic     = "M17 "
	DefaultPort = 17000
)

// Base-40 address coding. The first callsign character is the
// least-significant base-40 digit.
const CallsignAlphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-/."

const (
	// BroadcastAddress is the all-ones destination, written "@ALL".
	BroadcastAddress uint64 = 0xFFFFFFFFFFFF

	// MaxCallsignValue is the top of the regular callsign range (40^9 - 1).
	MaxCallsignValue uint64 = 262143999999999

	// HashAddressMin and HashAddressMax bound the #-prefixed range
	// [40^9, 40^9 + 40^8).
	HashAddressMin uint64 = 262144000000000
	HashAddressMax uint64 = 268697599999999
)
