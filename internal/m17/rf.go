package m17

import (
	"encoding/binary"
	"fmt"

	"github.com/kc1awv/m17-core/internal/fec"
)

// RF pipeline glue. Transmit runs frame bytes (CRC-protected for LSFs and
// packet chunks; stream and BERT frames carry no CRC) through the
// convolutional encoder, punctures, interleaves, randomizes, and prefixes
// the frame's sync word; receive reverses the chain, feeding soft bits to
// the Viterbi decoder.

// RFFrameLen is the byte length of one sync-prefixed RF frame: two sync
// bytes plus 368 payload bits.
const RFFrameLen = 2 + fec.InterleaveLen/8

const (
	lsfCodedBits    = 2 * (8*LSFLen + 4)           // 488
	streamCodedBits = 2 * (8*StreamDataLen + 4)    // 296
	packetCodedBits = 2 * (8*PacketChunkLen - 2 + 4) // 420, chunks carry 206 bits
	bertCodedBits   = 2 * (BERTBits + 4)           // 402

	packetChunkBits    = 8*PacketChunkLen - 2 // metadata byte reserves its low 2 bits
	streamLICHBits     = 96
	streamPayloadBits  = fec.InterleaveLen - streamLICHBits // 272
)

func finishRF(bits []byte, sync uint16) ([]byte, error) {
	interleaved, err := fec.Interleave(bits)
	if err != nil {
		return nil, err
	}
	randomized, err := fec.Randomize(interleaved)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, RFFrameLen)
	out = binary.BigEndian.AppendUint16(out, sync)
	return append(out, fec.PackBits(randomized)...), nil
}

func recoverRF(soft []fec.SoftBit) ([]fec.SoftBit, error) {
	if len(soft) != fec.InterleaveLen {
		return nil, fmt.Errorf("%w: RF payload must be %d soft bits, got %d", ErrInvalidInput, fec.InterleaveLen, len(soft))
	}
	derandomized, err := fec.RandomizeSoft(soft)
	if err != nil {
		return nil, err
	}
	return fec.InterleaveSoft(derandomized)
}

// SplitRFFrame separates a 48-byte RF frame into its sync word and the
// 368 payload bits mapped onto strong soft values.
func SplitRFFrame(frame []byte) (uint16, []fec.SoftBit, error) {
	if len(frame) != RFFrameLen {
		return 0, nil, fmt.Errorf("%w: RF frame must be %d bytes, got %d", ErrInvalidInput, RFFrameLen, len(frame))
	}
	sync := binary.BigEndian.Uint16(frame[0:2])
	bits := fec.UnpackBits(frame[2:], fec.InterleaveLen)
	return sync, fec.BitsToSoft(bits), nil
}

// EncodeRF produces the sync-prefixed 48-byte RF form of the LSF.
func (l LSF) EncodeRF() ([]byte, error) {
	full := l.ToBytes()
	coded := fec.ConvEncodeBytes(full[:], 8*LSFLen)
	punctured := fec.Puncture(coded, fec.PuncturePatternP1)
	return finishRF(punctured, LSFSync)
}

// DecodeLSFRF recovers an LSF from 368 soft payload bits. The CRC must
// verify.
func DecodeLSFRF(soft []fec.SoftBit) (LSF, error) {
	payload, err := recoverRF(soft)
	if err != nil {
		return LSF{}, err
	}

	var vd fec.ViterbiDecoder
	data, _, err := vd.DecodePunctured(payload, fec.PuncturePatternP1, lsfCodedBits)
	if err != nil {
		return LSF{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return ParseLSF(data[:LSFLen])
}

// EncodeRF produces the sync-prefixed 48-byte RF form of a stream frame.
// The Golay-encoded LICH chunk occupies the first 96 payload bits and is
// not convolutionally encoded.
func (f StreamFrame) EncodeRF() ([]byte, error) {
	lich := f.LICH.EncodeRF()

	data := f.DataBytes()
	coded := fec.ConvEncodeBytes(data[:], 8*StreamDataLen)
	punctured := fec.Puncture(coded, fec.PuncturePatternP2)

	bits := make([]byte, 0, fec.InterleaveLen)
	bits = append(bits, fec.UnpackBits(lich[:], streamLICHBits)...)
	bits = append(bits, punctured...)
	return finishRF(bits, StreamSync)
}

// DecodeStreamRF recovers a stream frame from 368 soft payload bits. The
// returned distance is the LICH chunk's Golay soft metric, for collector
// slot arbitration.
func DecodeStreamRF(soft []fec.SoftBit) (StreamFrame, uint32, error) {
	payload, err := recoverRF(soft)
	if err != nil {
		return StreamFrame{}, 0, err
	}

	chunk, dist, err := DecodeLICHChunkRF(payload[:streamLICHBits])
	if err != nil {
		return StreamFrame{}, 0, err
	}

	var vd fec.ViterbiDecoder
	data, _, err := vd.DecodePunctured(payload[streamLICHBits:], fec.PuncturePatternP2, streamCodedBits)
	if err != nil {
		return StreamFrame{}, 0, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	fn, pl, err := StreamDataFromBytes(data[:StreamDataLen])
	if err != nil {
		return StreamFrame{}, 0, err
	}
	return StreamFrame{LICH: chunk, FrameNumber: fn, Payload: pl}, dist, nil
}

// EncodePacketChunkRF produces the sync-prefixed 48-byte RF form of one
// 26-byte packet chunk.
func EncodePacketChunkRF(chunk [PacketChunkLen]byte) ([]byte, error) {
	coded := fec.ConvEncodeBytes(chunk[:], packetChunkBits)
	punctured := fec.Puncture(coded, fec.PuncturePatternP3)
	return finishRF(punctured, PacketSync)
}

// DecodePacketChunkRF recovers a packet chunk from 368 soft payload bits.
func DecodePacketChunkRF(soft []fec.SoftBit) ([PacketChunkLen]byte, error) {
	var chunk [PacketChunkLen]byte

	payload, err := recoverRF(soft)
	if err != nil {
		return chunk, err
	}

	var vd fec.ViterbiDecoder
	data, _, err := vd.DecodePunctured(payload, fec.PuncturePatternP3, packetCodedBits)
	if err != nil {
		return chunk, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	copy(chunk[:], data[:PacketChunkLen])
	// the metadata byte only defines its top six bits
	chunk[PacketChunkLen-1] &= 0xFC
	return chunk, nil
}

// EncodeRF produces the sync-prefixed 48-byte RF form of a BERT frame.
// The P2 schedule over 402 coded bits yields one bit more than the frame
// holds; the final kept bit is truncated and restored as an erasure on
// receive.
func (b BERTFrame) EncodeRF() ([]byte, error) {
	if len(b.Bits) != BERTBits {
		return nil, fmt.Errorf("%w: BERT frame must hold %d bits, got %d", ErrInvalidInput, BERTBits, len(b.Bits))
	}
	coded := fec.ConvEncode(b.Bits)
	punctured := fec.Puncture(coded, fec.PuncturePatternP2)[:fec.InterleaveLen]
	return finishRF(punctured, BERTSync)
}

// DecodeBERTRF recovers the 197 PRBS bits from 368 soft payload bits.
func DecodeBERTRF(soft []fec.SoftBit) (BERTFrame, error) {
	payload, err := recoverRF(soft)
	if err != nil {
		return BERTFrame{}, err
	}

	var vd fec.ViterbiDecoder
	data, _, err := vd.DecodePunctured(payload, fec.PuncturePatternP2, bertCodedBits)
	if err != nil {
		return BERTFrame{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return BERTFrame{Bits: fec.UnpackBits(data, BERTBits)}, nil
}
