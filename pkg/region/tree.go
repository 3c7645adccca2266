package region

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/tidwall/rtree"
)

// childIndex accelerates AddRegion's sibling-overlap scan with an R-tree
// over each Region's direct children bounds, so a candidate lookup costs
// O(log n + k) instead of scanning every sibling (spec §4.3).
//
// The candidate-then-verify shape mirrors
// d875a025_1F47E-geo-index-rtree's QueryBox (bbox search followed by an
// exact-geometry filter).
type childIndex struct {
	tree *rtree.RTree
}

func newChildIndex() *childIndex {
	return &childIndex{tree: &rtree.RTree{}}
}

func (c *childIndex) insert(child *Region) {
	min, max := boxPoints(child.Bounds)
	c.tree.Insert(min, max, child)
}

func (c *childIndex) candidates(box geo.GeoBox) []*Region {
	min, max := boxPoints(box)
	var out []*Region
	c.tree.Search(min, max, func(_, _ [2]float64, data interface{}) bool {
		out = append(out, data.(*Region))
		return true
	})
	return out
}

func boxPoints(b geo.GeoBox) (min, max [2]float64) {
	return [2]float64{b.MinLat, b.MinLon}, [2]float64{b.MaxLat, b.MaxLon}
}

// AddRegion inserts r into the subtree rooted at parent, following
// libosmscout's AddRegion: find a sibling whose area contains r by
// quorum; if found, recurse into it (skipping the insert entirely when r
// and the sibling share a name and r's reference is the weaker one, per
// the duplicate-skip rule); otherwise r becomes a direct child of parent.
func AddRegion(parent *Region, r *Region) {
	if parent.children == nil {
		parent.children = newChildIndex()
	}
	for _, child := range parent.children.candidates(r.Bounds) {
		if regionSubOfRegionQuorum(r, child) {
			if r.Name == child.Name && r.Reference.Weaker(child.Reference) {
				return
			}
			AddRegion(child, r)
			return
		}
	}
	parent.Children = append(parent.Children, r)
	parent.children.insert(r)
}

// regionSubOfRegionQuorum reports whether any ring of inner lies, by
// quorum, within any ring of outer (spec §4.3's IsAreaSubOfAreaQuorum:
// true if ANY ring pair satisfies the quorum, matching the nested-loop
// "if satisfied for i,j return true" shape).
func regionSubOfRegionQuorum(inner, outer *Region) bool {
	for _, iring := range inner.Rings {
		for _, oring := range outer.Rings {
			if geo.RingSubOfRingQuorum(iring.Coords, oring.Coords, geo.QuorumPercent) {
				return true
			}
		}
	}
	return false
}

// AttachPOI walks down from root to the deepest region whose bounds (and,
// if it has rings, whose ring) contains coord, and appends poi there
// (spec §4.4 step 7: POIs/addresses attach to the most specific region).
func AttachPOI(root *Region, coord geo.GeoCoord, poi POI) {
	target := deepestContaining(root, coord)
	target.POIs = append(target.POIs, poi)
}

// AttachAddress resolves street by name under the deepest containing
// region (creating it if absent) and appends the address, honoring the
// first-write-wins dedup rule.
func AttachAddress(root *Region, coord geo.GeoCoord, streetName string, addr Address) {
	target := deepestContaining(root, coord)
	if !target.markSeen(streetName, addr.HouseNumber) {
		return
	}
	for _, s := range target.Streets {
		if s.Name == streetName {
			s.Addresses = append(s.Addresses, addr)
			return
		}
	}
	target.Streets = append(target.Streets, &Street{Name: streetName, Addresses: []Address{addr}})
}

// deepestContaining returns the most deeply nested region under root
// whose area contains coord: aliases (and all point data) attach to the
// deepest containing ring, not the nearest named boundary.
func deepestContaining(root *Region, coord geo.GeoCoord) *Region {
	current := root
	for {
		advanced := false
		for _, child := range current.Children {
			if !child.Bounds.Contains(coord) {
				continue
			}
			if len(child.Rings) == 0 || ringsContain(child, coord) {
				current = child
				advanced = true
				break
			}
		}
		if !advanced {
			return current
		}
	}
}

func ringsContain(r *Region, coord geo.GeoCoord) bool {
	for _, ring := range r.Rings {
		if geo.CoordInRing(coord, ring.Coords) {
			return true
		}
	}
	return false
}

// AddAltName records an alias name on the deepest region containing
// coord, suppressed from the primary name index but retained for lookup
// (spec §4.4 step 9, resolved Open Question: aliases attach to the
// deepest containing region, same as any other point datum).
func AddAltName(root *Region, coord geo.GeoCoord, alt string) {
	target := deepestContaining(root, coord)
	target.AltNames = append(target.AltNames, alt)
}
