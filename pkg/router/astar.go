// Package router implements the A* route-node search (component H) and
// path reconstruction (component I), spec §4.8-§4.9.
//
// Follows a concrete min-heap, per-query state, and
// context-cancellation bitmask check, generalized from bidirectional
// CH-Dijkstra over shortcut edges to single-direction A* over the plain
// route-node graph with admissible heuristic, cost-limit pruning, and
// separate closed/closedRestricted sets. See DESIGN.md's `ch-dropped`
// entry for why the CH overlay search itself is not carried over.
package router

import (
	"context"
	"errors"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// ErrNoRoute is returned when the open set empties without reaching
// either target seed.
var ErrNoRoute = errors.New("router: no route found")

// ErrCancelled is returned when the breaker trips mid-search.
var ErrCancelled = errors.New("router: cancelled")

// RoutePosition identifies a query endpoint: the object (way/area) the
// point snapped to, the route-node index within that object's node
// list, and which database the object belongs to (spec §4.8 "Inputs").
type RoutePosition struct {
	ObjectRef  uint64
	NodeIndex  int
	DatabaseID string
	Coord      geo.GeoCoord
}

// Graph is the minimal read surface A* needs, satisfied by a wrapped
// node map (NewGraph) and by the tile-backed TileGraph.
type Graph interface {
	Node(id uint64) (*routegraph.RouteNode, bool)
}

// mapGraph adapts a plain map[uint64]*RouteNode (what ReadRouteNodes
// produces) to the Graph interface.
type mapGraph map[uint64]*routegraph.RouteNode

func (g mapGraph) Node(id uint64) (*routegraph.RouteNode, bool) {
	n, ok := g[id]
	return n, ok
}

// NewGraph wraps a node map for use with Route.
func NewGraph(nodes map[uint64]*routegraph.RouteNode) Graph {
	return mapGraph(nodes)
}

// State bundles the per-query routing configuration: the vehicle
// profile, the interned object-variant table backing real per-edge
// speeds, and (in multi-database mode) the twin lookup (spec §4.8
// "State").
type State struct {
	Vehicle  profile.Vehicle
	Variants *routegraph.VariantTable // nil falls back to the vehicle's ceiling speed
	Twins    *DatabaseSet             // nil for single-database queries
}

// vnode is one step of the reconstructed path, spec §4.9.
type vnode struct {
	nodeID uint64
	object uint64
	prev   uint64
	hasPrev bool
}

// Result is the outcome of a successful Route call.
type Result struct {
	TotalCost float64
	Nodes     []vnode
}

// Route runs the A* search of spec §4.8 between two already-snapped
// positions and returns the reconstructed node chain. targetCoord is the
// query's actual destination point, used to keep the heuristic admissible
// (estimate is computed to the real target, not to a target seed node).
func Route(ctx context.Context, g Graph, st State, startSeeds, targetSeeds []openItem, startCoord, targetCoord geo.GeoCoord) (*Result, error) {
	open := newOpenHeap()
	closed := make(map[uint64]bool)
	closedRestricted := make(map[uint64]bool)
	cameFrom := make(map[uint64]openItem)

	// targetSet maps each target-seed node id to the remaining last-mile
	// cost from that node to the query's actual target coordinate.
	targetSet := make(map[uint64]float64, len(targetSeeds))
	for _, t := range targetSeeds {
		targetSet[t.nodeID] = t.current
	}

	// costLimit prunes the open set (spec §4.8 "cost_limit"): a generous
	// multiple of the direct start-target estimate, wide enough that a
	// detour around one blocked road never exceeds it.
	airline := geo.Haversine(startCoord.Lat, startCoord.Lon, targetCoord.Lat, targetCoord.Lon)
	costLimit := 4 * st.Vehicle.EstimateCost(airline)

	for _, s := range startSeeds {
		open.Push(s)
	}

	var best *openItem
	var bestTotal float64
	iterations := 0

	for open.Len() > 0 {
		iterations++
		if iterations&255 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, ErrCancelled
			}
		}

		u := open.Pop()

		if u.restricted {
			if closedRestricted[u.nodeID] {
				continue
			}
			closedRestricted[u.nodeID] = true
		} else {
			if closed[u.nodeID] {
				continue
			}
			closed[u.nodeID] = true
		}
		cameFrom[u.nodeID] = u

		if remaining, ok := targetSet[u.nodeID]; ok {
			total := u.current + remaining
			if best == nil || total < bestTotal {
				uc := u
				best = &uc
				bestTotal = total
			}
			continue
		}

		node, ok := g.Node(u.nodeID)
		if !ok {
			continue
		}

		for i, p := range node.Paths {
			if u.hasPrev && p.TargetID == u.prev {
				continue
			}
			// Pass-through prevention: once inside a destination-only zone
			// (u.restricted), the only way back onto the open network is
			// through a target seed itself -- otherwise this would use the
			// zone as a shortcut rather than an actual destination.
			if _, isTarget := targetSet[p.TargetID]; u.restricted && !p.Restricted && !isTarget {
				continue
			}
			if !p.Usable {
				continue
			}
			if excluded(node, u.prevObj, i) {
				continue
			}

			targetClosed := p.Restricted
			if targetClosed {
				if closedRestricted[p.TargetID] {
					continue
				}
			} else if closed[p.TargetID] {
				continue
			}

			speed, grade := variantSpeed(st.Vehicle, p, st.Variants)
			edgeCost := st.Vehicle.EdgeCost(p.Distance, speed, grade)
			newCurrent := u.current + edgeCost

			if existing, ok := cameFromBest(open, p.TargetID); ok && existing <= newCurrent {
				continue
			}

			estimate := st.Vehicle.EstimateCost(geo.Haversine(p.TargetCoord.Lat, p.TargetCoord.Lon, targetCoord.Lat, targetCoord.Lon))
			overall := newCurrent + estimate
			if overall > costLimit {
				continue
			}

			open.Upsert(openItem{
				nodeID:     p.TargetID,
				current:    newCurrent,
				overall:    overall,
				prev:       u.nodeID,
				prevObj:    p.TargetObject,
				hasPrev:    true,
				restricted: p.Restricted,
			})

			if st.Twins != nil {
				for _, twinID := range st.Twins.TwinsOf(p.TargetID) {
					open.Upsert(openItem{
						nodeID:     twinID,
						current:    newCurrent,
						overall:    overall,
						prev:       u.nodeID,
						prevObj:    p.TargetObject,
						hasPrev:    true,
						restricted: p.Restricted,
					})
				}
			}
		}
	}

	if best == nil {
		return nil, ErrNoRoute
	}

	return &Result{TotalCost: bestTotal, Nodes: reconstruct(cameFrom, best.nodeID)}, nil
}

// excluded reports whether entering node via incoming object prevObj
// forbids continuing out through node.Paths[targetIndex], per the
// resolved turn-restriction table (spec §4.6/§4.8 step 3).
func excluded(node *routegraph.RouteNode, prevObj uint64, targetIndex int) bool {
	for _, ex := range node.Excludes {
		if ex.Source == prevObj && ex.TargetIndex == targetIndex {
			return true
		}
	}
	return false
}

// cameFromBest looks up a node's currently-known best cost in the open
// set, used for the "already in open with <= cost, skip" check.
func cameFromBest(open *openHeap, nodeID uint64) (float64, bool) {
	if i, ok := open.index[nodeID]; ok {
		return open.items[i].current, true
	}
	return 0, false
}

// variantSpeed resolves a path's effective (max_speed, grade) for cost
// purposes by looking its Variant index up in the interned
// ObjectVariant table (spec §4.6/§6.4). A nil table, or an index it
// doesn't recognize (an in-process Graph with no Write/Read round trip,
// or a pre-variant on-disk file), falls back to the vehicle's own
// ceiling speed and flat grade, which keeps EdgeCost well-defined.
func variantSpeed(v profile.Vehicle, p routegraph.Path, variants *routegraph.VariantTable) (speedKPH, gradePercent float64) {
	if variant, ok := variants.Variant(p.Variant); ok {
		return variant.MaxSpeedKPH, variant.GradePct
	}
	return v.MaxSpeedKPH(), 0
}
