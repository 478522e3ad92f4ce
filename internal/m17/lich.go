package m17

import (
	"fmt"

	"github.com/kc1awv/m17-core/internal/fec"
)

// The LICH re-broadcasts the LSF during a stream: the 240-bit frame is
// split into six 40-bit chunks, one per stream frame, each tagged with a
// 3-bit counter and Golay-protected to 96 bits.

// LICHChunk is one 48-bit LICH unit before Golay encoding.
type LICHChunk struct {
	Data    [5]byte // 40 bits of the serialized LSF
	Counter byte    // chunk position, 0-5
}

// Bytes packs the chunk into its 6-byte wire form, counter in the top
// three bits of the final byte.
func (c LICHChunk) Bytes() [LICHChunkLen]byte {
	var out [LICHChunkLen]byte
	copy(out[:5], c.Data[:])
	out[5] = c.Counter << 5
	return out
}

// LICHChunkFromBytes unpacks the 6-byte wire form.
func LICHChunkFromBytes(b [LICHChunkLen]byte) LICHChunk {
	var c LICHChunk
	copy(c.Data[:], b[:5])
	c.Counter = b[5] >> 5
	return c
}

// EncodeRF expands the chunk into its 96-bit Golay-protected form.
func (c LICHChunk) EncodeRF() [12]byte {
	return fec.EncodeLICH(c.Bytes())
}

// DecodeLICHChunkRF recovers a chunk from 96 soft bits. The returned
// distance is the Golay soft metric, lower meaning cleaner.
func DecodeLICHChunkRF(soft []fec.SoftBit) (LICHChunk, uint32, error) {
	if len(soft) != 96 {
		return LICHChunk{}, 0, fmt.Errorf("%w: LICH must be 96 soft bits, got %d", ErrInvalidInput, len(soft))
	}
	raw, dist := fec.DecodeLICH(soft)
	return LICHChunkFromBytes(raw), dist, nil
}

type lichSlot struct {
	data     [5]byte
	distance uint32
	filled   bool
}

// LICHCollector accumulates LICH chunks for one incoming stream. It is
// single-owner state: one collector per stream id, reset when the id
// changes. A slot is only overwritten by a chunk with a better Golay soft
// metric.
type LICHCollector struct {
	slots [LICHChunkCount]lichSlot
}

// Accept offers a decoded chunk with its Golay soft metric. It returns
// true when the chunk was stored.
func (c *LICHCollector) Accept(chunk LICHChunk, distance uint32) bool {
	if chunk.Counter >= LICHChunkCount {
		return false
	}
	slot := &c.slots[chunk.Counter]
	if slot.filled && distance >= slot.distance {
		return false
	}
	slot.data = chunk.Data
	slot.distance = distance
	slot.filled = true
	return true
}

// Complete reports whether all six slots are populated.
func (c *LICHCollector) Complete() bool {
	for i := range c.slots {
		if !c.slots[i].filled {
			return false
		}
	}
	return true
}

// TryAssemble concatenates the six chunks and parses the result as an LSF.
// It only succeeds once every slot is populated and the assembled frame's
// CRC verifies.
func (c *LICHCollector) TryAssemble() (LSF, bool) {
	if !c.Complete() {
		return LSF{}, false
	}

	var full [LSFLen]byte
	for i := range c.slots {
		copy(full[i*5:(i+1)*5], c.slots[i].data[:])
	}

	lsf, err := ParseLSF(full[:])
	if err != nil {
		return LSF{}, false
	}
	return lsf, true
}

// Reset clears all slots for a new stream.
func (c *LICHCollector) Reset() {
	*c = LICHCollector{}
}
