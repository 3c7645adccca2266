// Package region implements the administrative region tree (spec §3/§4.3):
// nested Region nodes carrying one or more boundary rings, each holding
// PointOfInterest/Address/POI children, built by recursively inserting
// boundaries into the deepest region whose area contains them.
//
// Grounded on libosmscout's GenLocationIndex.cpp/GenCityStreetIndex.cpp
// (Region, AddRegion, SortInBoundaries), generalised from admin_level-only
// boundaries to the full node/way/area/relation reference hierarchy,
// each insert skipping a would-be duplicate boundary: one with the same
// name as a containing sibling and a weaker reference kind.
package region

import "github.com/mapstack/osmindex/pkg/geo"

// POI is a single point of interest or address attached to a Region: a
// shop, a school, a house-numbered address point, and so on.
type POI struct {
	Name   string
	Coord  geo.GeoCoord
	Offset uint64 // object file offset of the originating node/way/area
}

// Street groups addresses sharing a street name within a Region, so a
// lookup by ("city", "street", "number") can resolve directly without a
// full scan (spec §4.4 location index layout).
type Street struct {
	Name      string
	Addresses []Address
}

// Address is a single house-number/POI pair indexed under a Street.
type Address struct {
	HouseNumber string
	Coord       geo.GeoCoord
	Offset      uint64
}

// Region is one node of the administrative tree: a named area (country,
// state, city, ...) with zero or more boundary rings, nested child
// Regions, and the streets/addresses/POIs that fall inside it.
type Region struct {
	Name      string
	AltNames  []string // alias names suppressed from the primary index, spec §4.4 step 9
	Reference RefKind
	Offset    uint64

	Rings []Ring // usually one outer ring; administrative relations may hold several

	Bounds geo.GeoBox

	Children []*Region
	Streets  []*Street
	POIs     []POI

	// children indexes Children's bounds for AddRegion's overlap search;
	// lazily created on first insert.
	children *childIndex

	// seenAddresses guards the first-write-wins address dedup rule (spec
	// §4.4 edge case): once a (street,housenumber) pair is indexed, later
	// duplicates from overlapping boundary data are discarded.
	seenAddresses map[string]bool
}

// Ring is a single closed polygon boundary, in OSM node order.
type Ring struct {
	Coords []geo.GeoCoord
}

// RefKind distinguishes the originating OSM element type, used by the
// sibling duplicate-skip rule's "weaker reference type" comparison.
type RefKind uint8

const (
	RefNode RefKind = iota
	RefWay
	RefArea
)

// Weaker reports whether r is a lower-priority reference than o under the
// node < way < area ordering (spec §3 invariant: identical-name siblings
// keep only the stronger reference).
func (r RefKind) Weaker(o RefKind) bool {
	return r < o
}

// NewRoot creates the tree root: an unbounded region with no rings, the
// implicit top-level container every top-level boundary is inserted into.
func NewRoot() *Region {
	return &Region{
		Name:   "",
		Bounds: geo.GeoBox{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180},
	}
}

// CalculateBounds recomputes Bounds from Rings, matching
// Region::CalculateMinMax.
func (r *Region) CalculateBounds() {
	box := geo.EmptyBox()
	for _, ring := range r.Rings {
		box = box.Union(geo.BoxOfRing(ring.Coords))
	}
	r.Bounds = box
}

func (r *Region) markSeen(street, houseNumber string) bool {
	if r.seenAddresses == nil {
		r.seenAddresses = make(map[string]bool)
	}
	key := street + "\x00" + houseNumber
	if r.seenAddresses[key] {
		return false
	}
	r.seenAddresses[key] = true
	return true
}
