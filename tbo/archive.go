package tbo

import (
	"encoding/binary"

	"github.com/luke-gav/namigator/dt"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/rc"
	"github.com/luke-gav/namigator/wgm"
)

// ArchiveTile is one nav tile decoded from a per-ADT archive: the retained
// heightfield RNM re-rasterizes obstacles onto, the last-built nav-mesh
// blob, and the WMO/doodad instance ids the tile's geometry gather touched.
type ArchiveTile struct {
	LocalX, LocalY int
	Heightfield    *rc.RcHeightfield
	NavData        *dt.NavMeshData
	WmoIDs         []wgm.InstanceID
	DoodadIDs      []wgm.InstanceID
}

// AdtArchive is the decoded form of one adtState.Serialize() output.
type AdtArchive struct {
	X, Y  int
	Tiles []ArchiveTile
}

// ParseAdtArchive decodes an archive written by adtState.Serialize, per
// spec §6's on-disk format: header, entry table, concatenated
// heightfield/blob data, trailing WMO/doodad id section. RNM's load_adt
// calls this once per ADT file read from disk.
func ParseAdtArchive(data []byte) (*AdtArchive, error) {
	r := &archiveReader{data: data}
	x := int(r.uint32())
	y := int(r.uint32())
	tileCount := int(r.uint32())
	if r.err != nil {
		return nil, xerr.New(xerr.Corrupt, "adt archive header truncated")
	}

	type tableRow struct {
		localX, localY           int
		heightfieldLen, blobLen int
	}
	table := make([]tableRow, tileCount)
	for i := range table {
		table[i] = tableRow{
			localX:         int(r.uint32()),
			localY:         int(r.uint32()),
			heightfieldLen: int(r.uint32()),
			blobLen:        int(r.uint32()),
		}
	}
	if r.err != nil {
		return nil, xerr.New(xerr.Corrupt, "adt archive entry table truncated")
	}

	tiles := make([]ArchiveTile, tileCount)
	for i, row := range table {
		hfBytes := r.bytes(row.heightfieldLen)
		blobBytes := r.bytes(row.blobLen)
		if r.err != nil {
			return nil, xerr.New(xerr.Corrupt, "adt archive tile data truncated")
		}
		navData := &dt.NavMeshData{}
		navData.FromBin(blobBytes)
		tiles[i] = ArchiveTile{
			LocalX:      row.localX,
			LocalY:      row.localY,
			Heightfield: rc.HeightfieldFromBin(hfBytes),
			NavData:     navData,
		}
	}

	for i := range tiles {
		wmoCount := int(r.uint32())
		wmos := make([]wgm.InstanceID, wmoCount)
		for j := range wmos {
			wmos[j] = wgm.InstanceID(r.uint32())
		}
		doodadCount := int(r.uint32())
		doodads := make([]wgm.InstanceID, doodadCount)
		for j := range doodads {
			doodads[j] = wgm.InstanceID(r.uint32())
		}
		if r.err != nil {
			return nil, xerr.New(xerr.Corrupt, "adt archive instance section truncated")
		}
		tiles[i].WmoIDs = wmos
		tiles[i].DoodadIDs = doodads
	}

	return &AdtArchive{X: x, Y: y, Tiles: tiles}, nil
}

// archiveReader is a small bounds-checked cursor over an archive's bytes,
// sticky on the first error so callers can read a whole structure and check
// err once at the end, matching wgm's chunkReader idiom.
type archiveReader struct {
	data []byte
	pos  int
	err  error
}

func (r *archiveReader) uint32() uint32 {
	if r.err != nil || r.pos+4 > len(r.data) {
		r.err = xerr.New(xerr.Corrupt, "archive read past end")
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *archiveReader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.data) {
		r.err = xerr.New(xerr.Corrupt, "archive read past end")
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}
