// Package regionindex implements the region tree's spatial grid index
// (spec §4.4 component D): a fixed 2^L x 2^L grid over the whole
// coordinate range, with regions bucketed into every cell their bounding
// box overlaps, deepest region first, so a coordinate lookup scans only
// the handful of regions registered against its cell instead of walking
// the whole tree.
//
// Grounded on hauke96-simple-osm-queries' cell-file grid index
// (src/index/grid_writer.go, grid_reader.go): coordinate-to-cell mapping
// plus per-cell object lists, adapted from an on-disk cell-file layout to
// an in-memory map since the location index's region count is small
// enough to keep resident during both build and query.
package regionindex

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/region"
)

// CellIndex identifies one cell of the 2^L x 2^L grid.
type CellIndex struct {
	X, Y int
}

// Grid is the deepest-first bucket index over a region tree.
type Grid struct {
	Level int // L; grid has 2^L columns and 2^L rows
	cells map[CellIndex][]*region.Region

	cellLat float64 // degrees per cell on the lat axis
	cellLon float64 // degrees per cell on the lon axis
}

// NewGrid builds an empty grid at the given level (spec default L=16).
func NewGrid(level int) *Grid {
	n := float64(int(1) << uint(level))
	return &Grid{
		Level:   level,
		cells:   make(map[CellIndex][]*region.Region),
		cellLat: 180.0 / n,
		cellLon: 360.0 / n,
	}
}

// CellOf returns the cell containing coord.
func (g *Grid) CellOf(coord geo.GeoCoord) CellIndex {
	x := int((coord.Lon + 180.0) / g.cellLon)
	y := int((coord.Lat + 90.0) / g.cellLat)
	return CellIndex{X: x, Y: y}
}

func (g *Grid) cellRange(box geo.GeoBox) (minX, minY, maxX, maxY int) {
	minX = int((box.MinLon + 180.0) / g.cellLon)
	maxX = int((box.MaxLon + 180.0) / g.cellLon)
	minY = int((box.MinLat + 90.0) / g.cellLat)
	maxY = int((box.MaxLat + 90.0) / g.cellLat)
	return
}

// Insert registers r into every cell its bounds overlap. Lookup examines
// every region in a cell, so its result does not depend on insert order.
func (g *Grid) Insert(r *region.Region) {
	minX, minY, maxX, maxY := g.cellRange(r.Bounds)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			c := CellIndex{X: x, Y: y}
			g.cells[c] = append(g.cells[c], r)
		}
	}
}

// BuildFromTree walks root's subtree depth-first, inserting children
// before their parent at each level so bucket order is deepest-first.
func BuildFromTree(root *region.Region, level int) *Grid {
	g := NewGrid(level)
	var walk func(r *region.Region)
	walk = func(r *region.Region) {
		for _, c := range r.Children {
			walk(c)
		}
		if len(r.Rings) > 0 {
			g.Insert(r)
		}
	}
	walk(root)
	return g
}

// Lookup returns, among the regions in the grid whose ring contains
// coord, the one with the smallest bounding box (see isDeeper), or nil. Cost is O(|cell| * |rings per region|), not O(tree
// size), since only regions bucketed into coord's cell are examined.
func (g *Grid) Lookup(coord geo.GeoCoord) *region.Region {
	cell := g.CellOf(coord)
	var best *region.Region
	for _, r := range g.cells[cell] {
		if !r.Bounds.Contains(coord) {
			continue
		}
		if !ringsContain(r, coord) {
			continue
		}
		if best == nil || isDeeper(r, best) {
			best = r
		}
	}
	return best
}

func ringsContain(r *region.Region, coord geo.GeoCoord) bool {
	for _, ring := range r.Rings {
		if geo.CoordInRing(coord, ring.Coords) {
			return true
		}
	}
	return false
}

// isDeeper breaks ties between two candidate regions covering the same
// coordinate by preferring the smaller bounding box, a cheap proxy for
// "more specific" that avoids tracking tree depth explicitly.
func isDeeper(a, b *region.Region) bool {
	areaOf := func(box geo.GeoBox) float64 {
		return (box.MaxLat - box.MinLat) * (box.MaxLon - box.MinLon)
	}
	return areaOf(a.Bounds) < areaOf(b.Bounds)
}
