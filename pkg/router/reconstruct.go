package router

import (
	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// reconstruct walks cameFrom back from finisher to the seed it has no
// predecessor for, producing the ordered vnode chain spec §4.9 describes.
func reconstruct(cameFrom map[uint64]openItem, finisher uint64) []vnode {
	var chain []vnode
	id := finisher
	for {
		it, ok := cameFrom[id]
		if !ok {
			break
		}
		chain = append(chain, vnode{nodeID: id, object: it.prevObj, prev: it.prev, hasPrev: it.hasPrev})
		if !it.hasPrev {
			break
		}
		id = it.prev
	}
	// chain was built finisher -> start; reverse to start -> finisher.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Description is the dense-expanded route spec §4.9 describes: one
// segment per traversed path, with every intermediate shape point
// included so a renderer or turn-by-turn stage can consume it directly.
type Description struct {
	TotalCost     float64
	TotalDistance float64
	Points        []geo.GeoCoord
}

// Describe dense-expands a Result's node chain into a Description by
// walking, for each consecutive pair of route-nodes, the Path that
// connects them and inlining its Shape (see routegraph's DESIGN.md note:
// Shape is only populated when g is the in-memory graph Build produced;
// a reloaded on-disk graph yields straight segments between route-nodes
// instead of the original polyline).
func Describe(g Graph, res *Result) *Description {
	desc := &Description{TotalCost: res.TotalCost}
	if len(res.Nodes) == 0 {
		return desc
	}

	for i := 0; i < len(res.Nodes); i++ {
		node, ok := g.Node(res.Nodes[i].nodeID)
		if !ok {
			continue
		}
		if i == 0 {
			desc.Points = append(desc.Points, node.Coord)
		}
		if i+1 >= len(res.Nodes) {
			continue
		}
		nextID := res.Nodes[i+1].nodeID
		p, found := findPath(node, nextID, res.Nodes[i+1].object)
		if !found {
			continue
		}
		desc.TotalDistance += p.Distance
		desc.Points = append(desc.Points, p.Shape...)
		if next, ok := g.Node(nextID); ok {
			desc.Points = append(desc.Points, next.Coord)
		}
	}
	return desc
}

func findPath(node *routegraph.RouteNode, targetID uint64, object uint64) (routegraph.Path, bool) {
	for _, p := range node.Paths {
		if p.TargetID == targetID && p.TargetObject == object {
			return p, true
		}
	}
	return routegraph.Path{}, false
}

// Way is the §6.5 transform_route_to_way view: the flat ordered list of
// coordinates a renderer consumes without cost/segment bookkeeping.
func Way(desc *Description) []geo.GeoCoord {
	return desc.Points
}
