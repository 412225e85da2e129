package rc

import (
	"encoding/binary"
	"math"
)

// ToBin serializes a heightfield into a flat little-endian binary blob, so
// RNM can persist a tile's rasterized-but-not-yet-polygonized voxel state
// alongside its nav-mesh blob (spec §6's per-ADT archive format) and later
// deserialize it as the "pristine archived heightfield" that obstacle
// add/remove re-rasterizes on top of.
//
// Layout: width, height int32; Bmin, Bmax [3]float64; Cs, Ch float64; then
// one span chain per column: a uint16 span count followed by that many
// (Smin, Smax, Area uint32) triples, low column index (x + z*Width) first.
func (hf *RcHeightfield) ToBin() []byte {
	buf := make([]byte, 0, 64+hf.Width*hf.Height*4)
	buf = appendInt32(buf, int32(hf.Width))
	buf = appendInt32(buf, int32(hf.Height))
	for _, v := range hf.Bmin {
		buf = appendFloat64(buf, v)
	}
	for _, v := range hf.Bmax {
		buf = appendFloat64(buf, v)
	}
	buf = appendFloat64(buf, hf.Cs)
	buf = appendFloat64(buf, hf.Ch)

	for i := 0; i < hf.Width*hf.Height; i++ {
		var spans []*RcSpan
		for s := hf.Spans[i]; s != nil; s = s.Next {
			spans = append(spans, s)
		}
		buf = appendUint16(buf, uint16(len(spans)))
		for _, s := range spans {
			buf = appendUint32(buf, uint32(s.Smin))
			buf = appendUint32(buf, uint32(s.Smax))
			buf = appendUint32(buf, uint32(s.Area))
		}
	}
	return buf
}

// HeightfieldFromBin reconstructs a heightfield produced by ToBin. Spans
// within a column are relinked in the order they were written, which ToBin
// always writes bottom-to-top (the order RcSpan.Next already walks).
func HeightfieldFromBin(data []byte) *RcHeightfield {
	off := 0
	readInt32 := func() int32 {
		v := int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		return v
	}
	readFloat64 := func() float64 {
		bits := binary.LittleEndian.Uint64(data[off:])
		off += 8
		return float64frombits(bits)
	}
	readUint16 := func() uint16 {
		v := binary.LittleEndian.Uint16(data[off:])
		off += 2
		return v
	}
	readUint32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return v
	}

	hf := &RcHeightfield{}
	hf.Width = int(readInt32())
	hf.Height = int(readInt32())
	for i := range hf.Bmin {
		hf.Bmin[i] = readFloat64()
	}
	for i := range hf.Bmax {
		hf.Bmax[i] = readFloat64()
	}
	hf.Cs = readFloat64()
	hf.Ch = readFloat64()

	hf.Spans = make([]*RcSpan, hf.Width*hf.Height)
	for i := 0; i < hf.Width*hf.Height; i++ {
		count := readUint16()
		var head, tail *RcSpan
		for j := uint16(0); j < count; j++ {
			s := &RcSpan{
				Smin: int(readUint32()),
				Smax: int(readUint32()),
				Area: int(readUint32()),
			}
			if head == nil {
				head = s
			} else {
				tail.Next = s
			}
			tail = s
		}
		hf.Spans[i] = head
	}
	return hf
}

func appendInt32(buf []byte, v int32) []byte {
	return appendUint32(buf, uint32(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendFloat64(buf []byte, v float64) []byte {
	bits := math.Float64bits(v)
	return append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
		byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56))
}

func float64frombits(bits uint64) float64 { return math.Float64frombits(bits) }
