// Package osmsource is the single OSM PBF import layer feeding both
// builders: a profile-table-driven routable-way extractor generalized
// from a car-only parser, plus the boundary, place-node, and
// address/POI extraction the location index needs.
//
// Follows a three-pass osmpbf scan (relations, ways, nodes) with
// referenced-node collection, and follows
// original_source's GenLocationIndex.cpp/GenCityStreetIndex.cpp for
// which tags feed which output stream.
package osmsource

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/paulmach/osm"
)

// RawWay is a routable way: its node chain plus the tags needed to derive
// per-vehicle access and cost (spec §4.5).
type RawWay struct {
	ID        osm.WayID
	NodeIDs   []osm.NodeID
	Highway   string
	Access    string
	MaxSpeed  float64 // km/h, 0 if untagged
	Oneway    string
	Junction  string
	Name      string
}

// RawNode is any node referenced by a routable way or carrying
// place/address/POI tags.
type RawNode struct {
	ID    osm.NodeID
	Coord geo.GeoCoord
}

// BoundaryRing is the node chain of one outer member way of a boundary
// relation. Member ways are not joined to each other, so a ring drawn
// with several ways arrives as several separate pieces.
type BoundaryRing struct {
	Coords []geo.GeoCoord
}

// RawRestriction is a `type=restriction` relation's from/via/to members,
// still in raw OSM ids (spec §4.6 "Turn restrictions"): Only is true for
// `restriction=only_*` (every other turn out of From is forbidden), false
// for `restriction=no_*` (only the ToWay turn is forbidden).
type RawRestriction struct {
	RelationID osm.RelationID
	FromWay    osm.WayID
	ToWay      osm.WayID
	Via        osm.NodeID
	Only       bool
}

// Boundary is an administrative boundary relation: a named area tagged
// admin_level, one or more outer rings (inner/hole rings are not
// modeled).
type Boundary struct {
	RelationID osm.RelationID
	Name       string
	AdminLevel int
	Rings      []BoundaryRing
}

// PlaceNode is a populated-place node (city/town/village/suburb, spec
// §4.4 step 3): locindex.Build records its name as an alternate name of
// the deepest region containing it, unless that region already has the
// same name.
type PlaceNode struct {
	NodeID osm.NodeID
	Name   string
	Coord  geo.GeoCoord
	Rank   string // OSM place=* value: city, town, village, ...
}

// AddressPoint is a node carrying addr:housenumber + addr:street (spec
// §4.4 step 6); address tags on ways are not extracted.
type AddressPoint struct {
	Coord       geo.GeoCoord
	Street      string
	HouseNumber string
	Offset      uint64
}

// POIPoint is a named point of interest (spec §4.4 step 7): any node with
// a `name` tag that isn't itself a place or address, e.g. shop=*,
// amenity=*.
type POIPoint struct {
	Coord  geo.GeoCoord
	Name   string
	Offset uint64
}

// Result is everything a single PBF pass extracts, handed off to both
// pkg/locindex and pkg/routegraph.
type Result struct {
	Ways      []RawWay
	NodeCoord map[osm.NodeID]geo.GeoCoord

	Boundaries   []Boundary
	Places       []PlaceNode
	Addresses    []AddressPoint
	POIs         []POIPoint
	Restrictions []RawRestriction
}

// RoutableWays filters Result.Ways to the subset usable by v, applying
// the same highway/access rules profile.Vehicle.CanUse encodes.
func (r *Result) RoutableWays(v profile.Vehicle) []RawWay {
	var out []RawWay
	for _, w := range r.Ways {
		if v.CanUse(w.Highway, w.Access) {
			out = append(out, w)
		}
	}
	return out
}
