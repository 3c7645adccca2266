package routegraph

import (
	"sort"

	"github.com/mapstack/osmindex/pkg/ioenc"
)

// WriteLegacyRouteNodes serializes nodes in the older, untiled layout
// (spec §9): a flat sequential record per node, written in a first pass
// with a placeholder file-offset for every path target (a target node's
// final offset isn't known until that node itself is written, and a
// node can be referenced by paths written before it). A second pass
// reopens the file with ioenc.RandomAccess and patches each path's
// target-offset field once every node's own file offset is known.
//
// Follows the same two-pass "write then patch neighbor offsets"
// discipline a contraction-hierarchies binary writer needs for the same
// reason: any forward-referencing layout shares this problem regardless
// of record shape.
func WriteLegacyRouteNodes(nodes []*RouteNode, path string) error {
	ordered := append([]*RouteNode(nil), nodes...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	offsetOf := make(map[uint64]int64, len(ordered))

	w, err := ioenc.CreateWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(ordered))); err != nil {
		return closeAfterRG(w, err)
	}

	// pathOffsetPos[i] holds, in order, the absolute file position each
	// path's 8-byte target-offset field occupies, so the patch pass can
	// find it directly without re-parsing variable-length records.
	var pathOffsetPos []int64
	var pathTargets []uint64

	for _, n := range ordered {
		offsetOf[n.ID] = w.Pos()
		if err := writeLegacyNodeRecord(w, n, &pathOffsetPos, &pathTargets); err != nil {
			return closeAfterRG(w, err)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	ra, err := ioenc.OpenRandomAccess(path)
	if err != nil {
		return err
	}
	defer ra.Close()

	for i, pos := range pathOffsetPos {
		target, ok := offsetOf[pathTargets[i]]
		if !ok {
			// Path leads to a node outside this graph's extracted area
			// (e.g. a border crossing); leave the sentinel zero offset
			// in place. Nothing in this module reads the legacy file back.
			continue
		}
		if err := ra.WriteFileOffsetAt(pos, 8, uint64(target)); err != nil {
			return err
		}
	}
	return nil
}

func writeLegacyNodeRecord(w *ioenc.Writer, n *RouteNode, pathOffsetPos *[]int64, pathTargets *[]uint64) error {
	if err := w.WriteVarintUnsigned(n.ID); err != nil {
		return err
	}
	if err := w.WriteCoord(n.Coord.Lat, n.Coord.Lon); err != nil {
		return err
	}

	if err := w.WriteVarintUnsigned(uint64(len(n.Objects))); err != nil {
		return err
	}
	for _, o := range n.Objects {
		if err := w.WriteVarintUnsigned(o); err != nil {
			return err
		}
	}

	if err := w.WriteU32(uint32(len(n.Paths))); err != nil {
		return err
	}
	for _, p := range n.Paths {
		pos := w.Pos()
		if err := w.WriteFileOffset(8, 0); err != nil {
			return err
		}
		*pathOffsetPos = append(*pathOffsetPos, pos)
		*pathTargets = append(*pathTargets, p.TargetID)

		if err := w.WriteF64(p.Distance); err != nil {
			return err
		}
		if err := w.WriteU16(p.Variant); err != nil {
			return err
		}
		flags := uint8(0)
		if p.Usable {
			flags |= 1
		}
		if p.Restricted {
			flags |= 2
		}
		if err := w.WriteU8(flags); err != nil {
			return err
		}
	}

	if err := w.WriteVarintUnsigned(uint64(len(n.Excludes))); err != nil {
		return err
	}
	for _, e := range n.Excludes {
		if err := w.WriteVarintUnsigned(e.Source); err != nil {
			return err
		}
		if err := w.WriteVarintUnsigned(uint64(e.TargetIndex)); err != nil {
			return err
		}
	}
	return nil
}
