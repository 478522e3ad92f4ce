package fec

// K=5 rate-1/2 convolutional code shared by every M17 frame type.
// G1 = x^4 + x^3 + 1 (0x19), G2 = x^4 + x^2 + x + 1 (0x17).

const (
	ConvolutionK      = 5
	ConvolutionStates = 1 << (ConvolutionK - 1)

	PolyG1 = 0x19
	PolyG2 = 0x17

	convFlushBits = ConvolutionK - 1
)

// ConvEncode encodes a bit slice (one bit per byte) with the K=5 rate-1/2
// encoder, appending four zero flush bits so the trellis terminates in the
// zero state. The output holds 2*(len(bits)+4) coded bits.
func ConvEncode(bits []byte) []byte {
	// four leading zeros model the initial register state
	ud := make([]byte, 0, len(bits)+2*convFlushBits)
	ud = append(ud, 0, 0, 0, 0)
	ud = append(ud, bits...)
	ud = append(ud, 0, 0, 0, 0)

	out := make([]byte, 0, 2*(len(bits)+convFlushBits))
	for i := 0; i < len(ud)-convFlushBits; i++ {
		g1 := (ud[i+4] + ud[i+1] + ud[i]) & 1
		g2 := (ud[i+4] + ud[i+3] + ud[i+2] + ud[i]) & 1
		out = append(out, g1, g2)
	}
	return out
}

// ConvEncodeBytes unpacks numBits bits of data MSB-first and encodes them.
func ConvEncodeBytes(data []byte, numBits int) []byte {
	return ConvEncode(UnpackBits(data, numBits))
}
