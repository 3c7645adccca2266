package routegraph

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/ioenc"
)

// ReadRouteNodes loads every node from a tiled route-node file (§6.3)
// into memory, keyed by node id. The tile table is not read: the
// header's node count bounds a sequential read that starts at the
// file's first record. A production reader
// would fault in one tile at a time behind an LRU cache (see
// pkg/routecache); this loader trades that locality for simplicity,
// matching the "memory bound" allowance the builder itself relies on.
//
// Path.Shape is never populated here: intermediate shape points are not
// part of the persisted record (see DESIGN.md's routegraph entry), so a
// node loaded from disk reconstructs straight-line segments between
// route-nodes only.
func ReadRouteNodes(path string) (map[uint64]*RouteNode, error) {
	s, err := ioenc.OpenScanner(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if _, err := s.ReadFileOffset(8); err != nil {
		return nil, err
	}
	nodeCount, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	if _, err := s.ReadU8(); err != nil {
		return nil, err
	}

	nodes := make(map[uint64]*RouteNode, nodeCount)
	for i := uint32(0); i < nodeCount; i++ {
		n, err := readRouteNodeRecord(s)
		if err != nil {
			return nil, err
		}
		nodes[n.ID] = n
	}

	// TargetCoord isn't persisted per path (it's redundant with the
	// target node's own Coord field); resolve it now so callers see the
	// same Path shape Build produces in memory.
	for _, n := range nodes {
		for i := range n.Paths {
			if target, ok := nodes[n.Paths[i].TargetID]; ok {
				n.Paths[i].TargetCoord = target.Coord
			}
		}
	}
	return nodes, nil
}

func readRouteNodeRecord(s *ioenc.Scanner) (*RouteNode, error) {
	id, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	lat, lon, err := s.ReadCoord()
	if err != nil {
		return nil, err
	}
	n := &RouteNode{ID: id, Coord: geo.GeoCoord{Lat: lat, Lon: lon}}

	objCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < objCount; i++ {
		o, err := s.ReadVarintUnsigned()
		if err != nil {
			return nil, err
		}
		n.Objects = append(n.Objects, o)
	}

	pathCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < pathCount; i++ {
		targetID, err := s.ReadVarintUnsigned()
		if err != nil {
			return nil, err
		}
		dist, err := s.ReadF64()
		if err != nil {
			return nil, err
		}
		variant, err := s.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := s.ReadU8()
		if err != nil {
			return nil, err
		}
		n.Paths = append(n.Paths, Path{
			TargetID:   targetID,
			Distance:   dist,
			Variant:    variant,
			Usable:     flags&1 != 0,
			Restricted: flags&2 != 0,
		})
	}

	excludeCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < excludeCount; i++ {
		source, err := s.ReadVarintUnsigned()
		if err != nil {
			return nil, err
		}
		targetIdx, err := s.ReadVarintUnsigned()
		if err != nil {
			return nil, err
		}
		n.Excludes = append(n.Excludes, Exclude{Source: source, TargetIndex: int(targetIdx)})
	}

	return n, nil
}
