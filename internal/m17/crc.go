package m17

import "encoding/binary"

const crcPoly = 0x5935

// CRC16 computes the M17 CRC: polynomial 0x5935, initial value 0xFFFF,
// MSB-first, no final XOR, no reflection.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)

	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRCBytes returns the CRC as big-endian wire bytes.
func CRCBytes(data []byte) [2]byte {
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], CRC16(data))
	return out
}

// VerifyCRC reports whether data, whose last two bytes carry a big-endian
// CRC, checksums correctly.
func VerifyCRC(data []byte) bool {
	if len(data) < CRCLen {
		return false
	}
	return CRC16(data[:len(data)-CRCLen]) == binary.BigEndian.Uint16(data[len(data)-CRCLen:])
}
