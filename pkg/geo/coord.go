// Package geo implements the geographic primitives shared by the location
// index and the route-node graph: coordinates, bounding boxes, distance
// functions, and the ring-containment predicates that drive every
// spatial-containment decision in the two builders.
package geo

import "math"

// GeoCoord is a WGS84 latitude/longitude pair in degrees.
type GeoCoord struct {
	Lat float64
	Lon float64
}

// Valid reports whether c lies within the legal lat/lon ranges.
func (c GeoCoord) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lon)
}

// quantizeScale turns a GeoCoord into the fixed-point grid used by Point's
// stable identifier: 1e7 gives ~1.1cm resolution at the equator, matching
// the precision OSM itself stores node coordinates at.
const quantizeScale = 1e7

// quantize returns the fixed-point lat/lon used to derive a Point's id.
func quantize(c GeoCoord) (qlat, qlon int64) {
	return int64(math.Round(c.Lat * quantizeScale)), int64(math.Round(c.Lon * quantizeScale))
}

// Point is a coordinate with a derived stable 64-bit identifier: the
// quantized coordinate packed into the high bits plus a small serial in the
// low bits, so that two points quantizing to the same cell but created at
// different times still compare distinct while points re-derived from the
// same coordinate and serial always agree.
type Point struct {
	ID    uint64
	Coord GeoCoord
}

// serialBits is the number of low bits reserved for the disambiguating
// serial; the remaining bits hold the packed quantized lat/lon.
const serialBits = 8

// NewPoint derives a Point's id from its coordinate and a small serial
// (0..255) used to distinguish points that quantize to the same cell.
func NewPoint(c GeoCoord, serial uint8) Point {
	qlat, qlon := quantize(c)
	// Offset to non-negative range before packing: lat in [-900000000,900000000],
	// lon in [-1800000000,1800000000], both fit comfortably in 32 bits.
	ulat := uint64(qlat + 900000000)
	ulon := uint64(qlon + 1800000000)
	id := (ulat<<32 | ulon) << serialBits
	id |= uint64(serial)
	return Point{ID: id, Coord: c}
}

// GeoBox is an axis-aligned bounding box in lat/lon space.
type GeoBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// EmptyBox returns a box with inverted bounds, ready to be grown with Extend.
func EmptyBox() GeoBox {
	return GeoBox{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
}

// Extend grows b to include c, returning the new box.
func (b GeoBox) Extend(c GeoCoord) GeoBox {
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
	if c.Lon < b.MinLon {
		b.MinLon = c.Lon
	}
	if c.Lon > b.MaxLon {
		b.MaxLon = c.Lon
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b GeoBox) Union(o GeoBox) GeoBox {
	return GeoBox{
		MinLat: math.Min(b.MinLat, o.MinLat),
		MinLon: math.Min(b.MinLon, o.MinLon),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
	}
}

// Overlaps is the standard 1-D-interval intersection test applied on both
// axes: the two boxes overlap iff neither axis's intervals are disjoint.
func (b GeoBox) Overlaps(o GeoBox) bool {
	if b.MaxLat < o.MinLat || o.MaxLat < b.MinLat {
		return false
	}
	if b.MaxLon < o.MinLon || o.MaxLon < b.MinLon {
		return false
	}
	return true
}

// Contains reports whether the box contains c (boundary-inclusive).
func (b GeoBox) Contains(c GeoCoord) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// BoxOfRing returns the bounding box of a ring of coordinates.
func BoxOfRing(ring []GeoCoord) GeoBox {
	box := EmptyBox()
	for _, c := range ring {
		box = box.Extend(c)
	}
	return box
}
