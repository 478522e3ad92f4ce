package fec

// randomizeSeq is the 46-byte whitening sequence, applied MSB-first over
// the 368-bit frame payload.
var randomizeSeq = [46]byte{
	0xD6, 0xB5, 0xE2, 0x30, 0x82, 0xFF, 0x84, 0x62, 0xBA, 0x4E,
	0x96, 0x90, 0xD8, 0x98, 0xDD, 0x5D, 0x0C, 0xC8, 0x52, 0x43,
	0x91, 0x1D, 0xF8, 0x6E, 0x68, 0x2F, 0x35, 0xDA, 0x14, 0xEA,
	0xCD, 0x76, 0x19, 0x8D, 0xD5, 0x80, 0xD1, 0x33, 0x87, 0x13,
	0x57, 0x18, 0x2D, 0x29, 0x78, 0xC3,
}

// Randomize XORs 368 hard bits with the whitening sequence. The operation
// is an involution.
func Randomize(bits []byte) ([]byte, error) {
	if len(bits) != InterleaveLen {
		return nil, ErrInvalidLength
	}
	out := make([]byte, InterleaveLen)
	for i := 0; i < InterleaveLen; i++ {
		out[i] = bits[i] ^ ((randomizeSeq[i/8] >> (7 - (i % 8))) & 1)
	}
	return out, nil
}

// RandomizeSoft flips the polarity of soft bits wherever the whitening
// sequence carries a 1.
func RandomizeSoft(soft []SoftBit) ([]SoftBit, error) {
	if len(soft) != InterleaveLen {
		return nil, ErrInvalidLength
	}
	out := make([]SoftBit, InterleaveLen)
	for i := 0; i < InterleaveLen; i++ {
		if (randomizeSeq[i/8]>>(7-(i%8)))&1 != 0 {
			out[i] = SoftOne - soft[i]
		} else {
			out[i] = soft[i]
		}
	}
	return out, nil
}
