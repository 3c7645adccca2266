package routegraph

import (
	"fmt"
	"sort"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/ioenc"
)

// VariantTable interns (type, max_speed, grade) tuples into a stable
// 16-bit index (spec §4.6, §6.4): a `CHGraph`-style weight array
// generalized from a bare uint32 weight to a richer interned tuple.
type VariantTable struct {
	byKey map[ObjectVariant]uint16
	list  []ObjectVariant
}

func NewVariantTable() *VariantTable {
	return &VariantTable{byKey: make(map[ObjectVariant]uint16)}
}

// Intern returns v's stable index, assigning a new one on first sight.
func (t *VariantTable) Intern(v ObjectVariant) uint16 {
	if idx, ok := t.byKey[v]; ok {
		return idx
	}
	idx := uint16(len(t.list))
	t.list = append(t.list, v)
	t.byKey[v] = idx
	return idx
}

// Variant returns the ObjectVariant interned at idx, for resolving a
// path's real per-edge speed/grade at query time instead of falling
// back to a vehicle's flat ceiling speed.
func (t *VariantTable) Variant(idx uint16) (ObjectVariant, bool) {
	if t == nil || int(idx) >= len(t.list) {
		return ObjectVariant{}, false
	}
	return t.list[idx], true
}

// WriteObjectVariants serializes the interned table per §6.4:
// `u32 count; for each: (type_id, max_speed_kmh, grade)`. type_id is the
// index of HighwayType in typeNames.
func WriteObjectVariants(t *VariantTable, typeNames []string, path string) error {
	w, err := ioenc.CreateWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(t.list))); err != nil {
		w.Abort()
		return err
	}
	typeIndex := make(map[string]uint32, len(typeNames))
	for i, n := range typeNames {
		typeIndex[n] = uint32(i)
	}
	for _, v := range t.list {
		if err := w.WriteU32(typeIndex[v.HighwayType]); err != nil {
			w.Abort()
			return err
		}
		if err := w.WriteF64(v.MaxSpeedKPH); err != nil {
			w.Abort()
			return err
		}
		if err := w.WriteF64(v.GradePct); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Close()
}

// ReadObjectVariants reads back the table WriteObjectVariants wrote, for
// resolving a path's Variant index to its real (max_speed, grade) at
// query time. The on-disk format (§6.4) persists type_id, not the
// typeNames strings that assigned it, so HighwayType here is the
// type_id formatted as a decimal string rather than the original
// highway tag -- the only consumer that needs the name back is a
// debug/inspection tool, not the router's cost model.
func ReadObjectVariants(path string) (*VariantTable, error) {
	s, err := ioenc.OpenScanner(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	count, err := s.ReadU32()
	if err != nil {
		return nil, err
	}

	t := NewVariantTable()
	t.list = make([]ObjectVariant, 0, count)
	for i := uint32(0); i < count; i++ {
		typeID, err := s.ReadU32()
		if err != nil {
			return nil, err
		}
		speed, err := s.ReadF64()
		if err != nil {
			return nil, err
		}
		grade, err := s.ReadF64()
		if err != nil {
			return nil, err
		}
		v := ObjectVariant{HighwayType: fmt.Sprintf("%d", typeID), MaxSpeedKPH: speed, GradePct: grade}
		t.list = append(t.list, v)
		t.byKey[v] = uint16(i)
	}
	return t, nil
}

// WriteIntersections serializes the junction id -> incident object list
// per §6.2: `u32 count; for each: varuint node_id, varuint object_count,
// object refs delta-coded`.
func WriteIntersections(nodes []*RouteNode, path string) error {
	w, err := ioenc.CreateWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(nodes))); err != nil {
		w.Abort()
		return err
	}
	for _, n := range nodes {
		if err := w.WriteVarintUnsigned(n.ID); err != nil {
			w.Abort()
			return err
		}
		if err := w.WriteVarintUnsigned(uint64(len(n.Objects))); err != nil {
			w.Abort()
			return err
		}
		objs := append([]uint64(nil), n.Objects...)
		sort.Slice(objs, func(i, j int) bool { return objs[i] < objs[j] })
		var prev uint64
		for i, o := range objs {
			if i == 0 {
				if err := w.WriteVarintUnsigned(o); err != nil {
					w.Abort()
					return err
				}
			} else {
				if err := w.WriteVarintSigned(int64(o) - int64(prev)); err != nil {
					w.Abort()
					return err
				}
			}
			prev = o
		}
	}
	return w.Close()
}

// defaultTileMagnification is the grid shift applied to a node's quantized
// coordinate to derive its tile coordinate (spec §6.3's
// tile_magnification_level); a larger value means fewer, bigger tiles.
const defaultTileMagnification = 14

// TileKey identifies one tile of the route-node grid.
type TileKey struct {
	X, Y uint32
}

func tileOf(c geo.GeoCoord, magnification uint8) TileKey {
	const quantizeScale = 1e7
	qlat := int64(c.Lat*quantizeScale) + 900000000
	qlon := int64(c.Lon*quantizeScale) + 1800000000
	shift := uint(magnification)
	return TileKey{X: uint32(uint64(qlon) >> shift), Y: uint32(uint64(qlat) >> shift)}
}

// WriteRouteNodes serializes nodes per §6.3's tiled layout: a
// back-patched header (index_offset, node_count), the magnification
// level, node records ordered by tile, and a trailing tile table mapping
// (x,y) -> (offset, count).
//
// Adapted from a back-patch-free bulk write (a CH binary format whose
// arrays are fully known up front needs no header back-patch) to add the
// back-patched header this layout requires.
func WriteRouteNodes(nodes []*RouteNode, variants *VariantTable, magnification uint8, path string) error {
	sorted := append([]*RouteNode(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		ti, tj := tileOf(sorted[i].Coord, magnification), tileOf(sorted[j].Coord, magnification)
		if ti.Y != tj.Y {
			return ti.Y < tj.Y
		}
		if ti.X != tj.X {
			return ti.X < tj.X
		}
		return sorted[i].ID < sorted[j].ID
	})

	w, err := ioenc.CreateWriter(path)
	if err != nil {
		return err
	}

	indexOffsetHandle, err := w.WritePlaceholderOffset(8)
	if err != nil {
		return closeAfterRG(w, err)
	}
	nodeCountHandle, err := w.WritePlaceholderOffset(4)
	if err != nil {
		return closeAfterRG(w, err)
	}
	if err := w.WriteU8(magnification); err != nil {
		return closeAfterRG(w, err)
	}

	type tileRange struct {
		key   TileKey
		start int64
		count uint32
	}
	var ranges []tileRange
	var current *tileRange

	for _, n := range sorted {
		key := tileOf(n.Coord, magnification)
		if current == nil || current.key != key {
			if current != nil {
				ranges = append(ranges, *current)
			}
			current = &tileRange{key: key, start: w.Pos()}
		}
		if err := writeRouteNodeRecord(w, n); err != nil {
			return closeAfterRG(w, err)
		}
		current.count++
	}
	if current != nil {
		ranges = append(ranges, *current)
	}

	indexOffset := uint64(w.Pos())
	if err := w.WriteU32(uint32(len(ranges))); err != nil {
		return closeAfterRG(w, err)
	}
	for _, r := range ranges {
		if err := w.WriteU32(r.key.X); err != nil {
			return closeAfterRG(w, err)
		}
		if err := w.WriteU32(r.key.Y); err != nil {
			return closeAfterRG(w, err)
		}
		if err := w.WriteFileOffset(8, uint64(r.start)); err != nil {
			return closeAfterRG(w, err)
		}
		if err := w.WriteU32(r.count); err != nil {
			return closeAfterRG(w, err)
		}
	}

	if err := w.Patch(indexOffsetHandle, indexOffset); err != nil {
		return closeAfterRG(w, err)
	}
	if err := w.Patch(nodeCountHandle, uint64(len(sorted))); err != nil {
		return closeAfterRG(w, err)
	}

	return w.Close()
}

func closeAfterRG(w *ioenc.Writer, cause error) error {
	w.Abort()
	return cause
}

func writeRouteNodeRecord(w *ioenc.Writer, n *RouteNode) error {
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

	if err := w.WriteVarintUnsigned(uint64(len(n.Paths))); err != nil {
		return err
	}
	for _, p := range n.Paths {
		if err := w.WriteVarintUnsigned(p.TargetID); err != nil {
			return err
		}
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
