package routegraph

import (
	"sort"

	"github.com/mapstack/osmindex/pkg/ioenc"
)

// TileRange locates one tile's node records within a route-node file:
// the byte span [Offset, End) holding exactly Count records, as written
// by WriteRouteNodes' per-tile grouping.
type TileRange struct {
	Key    TileKey
	Offset int64
	End    int64
	Count  uint32
}

// ReadTileTable reads a tiled route-node file's header and trailing tile
// table without decoding any node bodies (spec §4.8 "tiles are read in
// LRU-cached blocks"): enough to know which byte range on disk holds
// which tile, nothing more.
func ReadTileTable(path string) (magnification uint8, ranges []TileRange, err error) {
	s, err := ioenc.OpenScanner(path)
	if err != nil {
		return 0, nil, err
	}
	defer s.Close()

	indexOffset, err := s.ReadFileOffset(8)
	if err != nil {
		return 0, nil, err
	}
	if _, err := s.ReadU32(); err != nil { // node count, unused here
		return 0, nil, err
	}
	magnification, err = s.ReadU8()
	if err != nil {
		return 0, nil, err
	}

	if err := s.SetPos(int64(indexOffset)); err != nil {
		return 0, nil, err
	}
	rangeCount, err := s.ReadU32()
	if err != nil {
		return 0, nil, err
	}
	ranges = make([]TileRange, rangeCount)
	for i := range ranges {
		x, err := s.ReadU32()
		if err != nil {
			return 0, nil, err
		}
		y, err := s.ReadU32()
		if err != nil {
			return 0, nil, err
		}
		off, err := s.ReadFileOffset(8)
		if err != nil {
			return 0, nil, err
		}
		count, err := s.ReadU32()
		if err != nil {
			return 0, nil, err
		}
		ranges[i] = TileRange{Key: TileKey{X: x, Y: y}, Offset: int64(off), Count: count}
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Offset < ranges[j].Offset })
	for i := range ranges {
		if i+1 < len(ranges) {
			ranges[i].End = ranges[i+1].Offset
		} else {
			ranges[i].End = int64(indexOffset)
		}
	}
	return magnification, ranges, nil
}

// ReadTileRaw returns one tile's encoded node-record bytes, suitable for
// routecache.TileCache storage and for DecodeTileNodes.
func ReadTileRaw(path string, r TileRange) ([]byte, error) {
	s, err := ioenc.OpenScanner(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	if err := s.SetPos(r.Offset); err != nil {
		return nil, err
	}
	return s.ReadBytes(int(r.End - r.Offset))
}

// DecodeTileNodes decodes a tile's raw node-record bytes, as returned by
// ReadTileRaw or a TileCache hit, into the nodes it contains. A path's
// TargetCoord is left unresolved when its target lives in a tile that
// hasn't been decoded yet; callers merging several tiles into one graph
// should re-resolve it once the target's tile is also decoded (see
// router.TileGraph).
func DecodeTileNodes(raw []byte, count uint32) (map[uint64]*RouteNode, error) {
	s := ioenc.OpenScannerBytes(raw)
	defer s.Close()
	nodes := make(map[uint64]*RouteNode, count)
	for i := uint32(0); i < count; i++ {
		n, err := readRouteNodeRecord(s)
		if err != nil {
			return nil, err
		}
		nodes[n.ID] = n
	}
	return nodes, nil
}
