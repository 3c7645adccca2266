package routegraph

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/osmsource"
	"github.com/paulmach/osm"
)

// Way is the subset of osmsource.RawWay the sweep needs, kept local to
// this package so routegraph doesn't leak osm.* types into its public
// surface.
type Way struct {
	ObjectOffset uint64
	NodeIDs      []osm.NodeID
	Highway      string
	Access       string
	MaxSpeedKPH  float64
	Oneway       string
	Junction     string
}

// WaysFromResult adapts osmsource's routable ways into routegraph.Way,
// using the OSM way id as the object offset (a real object file would
// assign a proper file offset; this builder uses the OSM id directly
// since no area/way binary file is modeled in this corpus (see
// DESIGN.md's osmsource entry for the object-file simplification).
func WaysFromResult(res *osmsource.Result) []Way {
	out := make([]Way, len(res.Ways))
	for i, w := range res.Ways {
		out[i] = Way{
			ObjectOffset: uint64(w.ID),
			NodeIDs:      w.NodeIDs,
			Highway:      w.Highway,
			Access:       w.Access,
			MaxSpeedKPH:  w.MaxSpeed,
			Oneway:       w.Oneway,
			Junction:     w.Junction,
		}
	}
	return out
}

// Sweep1 implements spec §4.5's intersection detection: every node
// referenced by more than one way, or appearing more than once within
// the same way (a self-intersecting loop), becomes a junction.
func Sweep1(ways []Way) map[osm.NodeID]bool {
	state := make(map[osm.NodeID]junctionState)
	mark := func(id osm.NodeID) {
		switch state[id] {
		case unseen:
			state[id] = usedOnce
		case usedOnce:
			state[id] = usedMany
		}
	}

	for _, w := range ways {
		if len(w.NodeIDs) == 0 {
			continue
		}
		// Endpoints are always junction candidates (a dead-end or the
		// boundary of the extracted area is still a valid route-node).
		mark(w.NodeIDs[0])
		mark(w.NodeIDs[len(w.NodeIDs)-1])
		for _, id := range w.NodeIDs {
			mark(id)
		}
	}

	junctions := make(map[osm.NodeID]bool)
	for id, s := range state {
		if s == usedMany {
			junctions[id] = true
		}
	}
	return junctions
}

// Sweep2 implements spec §4.5's object collection: for every way, for
// every node of it that is a junction, record the way's object offset
// against that node id.
func Sweep2(ways []Way, junctions map[osm.NodeID]bool) map[osm.NodeID][]uint64 {
	objectsAt := make(map[osm.NodeID][]uint64)
	for _, w := range ways {
		seen := make(map[osm.NodeID]bool)
		for _, id := range w.NodeIDs {
			if !junctions[id] || seen[id] {
				continue
			}
			seen[id] = true
			objectsAt[id] = append(objectsAt[id], w.ObjectOffset)
		}
	}
	return objectsAt
}

// DerivePaths implements spec §4.6: for each junction node, split every
// incident way at junction boundaries and emit the resulting forward/
// backward path segments. coords resolves an OSM node id to its
// coordinate (from osmsource.Result.NodeCoord).
func DerivePaths(ways []Way, junctions map[osm.NodeID]bool, coords map[osm.NodeID]geo.GeoCoord) map[osm.NodeID]*RouteNode {
	nodes := make(map[osm.NodeID]*RouteNode)
	nodeFor := func(id osm.NodeID) *RouteNode {
		n, ok := nodes[id]
		if !ok {
			n = &RouteNode{ID: uint64(id), Coord: coords[id]}
			nodes[id] = n
		}
		return n
	}

	for _, w := range ways {
		fwd, bwd := directionFlags(w)
		if !fwd && !bwd {
			continue
		}
		n := len(w.NodeIDs)
		if n < 2 {
			continue
		}

		closed := w.NodeIDs[0] == w.NodeIDs[n-1]

		for i, id := range w.NodeIDs {
			if !junctions[id] {
				continue
			}
			from := nodeFor(id)
			from.Objects = appendUnique(from.Objects, w.ObjectOffset)

			if fwd {
				if j, dist, shape, ok := nextJunction(w.NodeIDs, coords, junctions, i, 1, closed); ok {
					from.Paths = append(from.Paths, pathTo(w, j, coords[j], dist, shape))
				}
			}
			if bwd {
				if j, dist, shape, ok := nextJunction(w.NodeIDs, coords, junctions, i, -1, closed); ok {
					from.Paths = append(from.Paths, pathTo(w, j, coords[j], dist, shape))
				}
			}
		}
	}
	return nodes
}

func pathTo(w Way, targetID osm.NodeID, target geo.GeoCoord, dist float64, shape []geo.GeoCoord) Path {
	return Path{
		TargetID:     uint64(targetID),
		TargetCoord:  target,
		TargetObject: w.ObjectOffset,
		Distance:     dist,
		Usable:       true,
		Restricted:   isRestrictedAccess(w),
		Shape:        shape,
	}
}

// isRestrictedAccess marks destination-only ways (access=destination):
// usable to enter, but the router must not route through them (spec
// §4.6's "restricted" flag).
func isRestrictedAccess(w Way) bool {
	return w.Access == "destination" || w.Access == "delivery"
}

func appendUnique(s []uint64, v uint64) []uint64 {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// directionFlags mirrors a plain oneway/roundabout direction table,
// generalized off the car-only assumption: oneway/roundabout semantics
// are independent of which vehicle ultimately consumes the path.
func directionFlags(w Way) (forward, backward bool) {
	forward, backward = true, true
	if w.Highway == "motorway" || w.Highway == "motorway_link" || w.Junction == "roundabout" {
		backward = false
	}
	switch w.Oneway {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		forward, backward = false, false
	}
	return
}

// nextJunction walks nodeIDs from index start in the given direction
// (+1 forward, -1 backward), summing spherical distance, until it finds
// the next junction id. For a closed way it wraps around the ring.
func nextJunction(nodeIDs []osm.NodeID, coords map[osm.NodeID]geo.GeoCoord, junctions map[osm.NodeID]bool, start, dir int, closed bool) (osm.NodeID, float64, []geo.GeoCoord, bool) {
	n := len(nodeIDs)
	dist := 0.0
	var shape []geo.GeoCoord
	prev := coords[nodeIDs[start]]
	i := start
	for steps := 0; steps < n; steps++ {
		next := i + dir
		if closed {
			next = ((next % n) + n) % n
		} else if next < 0 || next >= n {
			return 0, 0, nil, false
		}
		if next == start {
			return 0, 0, nil, false
		}
		cur := coords[nodeIDs[next]]
		dist += geo.Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		if junctions[nodeIDs[next]] {
			return nodeIDs[next], dist, shape, true
		}
		shape = append(shape, cur)
		prev = cur
		i = next
	}
	return 0, 0, nil, false
}
