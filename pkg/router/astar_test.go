package router

import (
	"context"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

func coord(lat, lon float64) geo.GeoCoord { return geo.GeoCoord{Lat: lat, Lon: lon} }

// linearGraph builds a chain 1 -> 2 -> ... -> n, one-way, each hop
// roughly 100m apart, usable by every vehicle.
func linearGraph(n int) map[uint64]*routegraph.RouteNode {
	nodes := make(map[uint64]*routegraph.RouteNode, n)
	for i := 1; i <= n; i++ {
		lat := float64(i) * 0.001
		nodes[uint64(i)] = &routegraph.RouteNode{ID: uint64(i), Coord: coord(lat, 0)}
	}
	for i := 1; i < n; i++ {
		from, to := nodes[uint64(i)], nodes[uint64(i+1)]
		from.Paths = append(from.Paths, routegraph.Path{
			TargetID:    to.ID,
			TargetCoord: to.Coord,
			Distance:    geo.Haversine(from.Coord.Lat, from.Coord.Lon, to.Coord.Lat, to.Coord.Lon),
			Usable:      true,
		})
	}
	return nodes
}

func seedsFor(nodeID uint64) []openItem {
	return []openItem{{nodeID: nodeID, current: 0, overall: 0}}
}

func TestRouteFindsDirectPath(t *testing.T) {
	nodes := linearGraph(4)
	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	res, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 4, current: 0}}, nodes[1].Coord, nodes[4].Coord)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(res.Nodes) != 4 {
		t.Fatalf("Nodes = %v, want 4 nodes", res.Nodes)
	}
	if res.Nodes[0].nodeID != 1 || res.Nodes[len(res.Nodes)-1].nodeID != 4 {
		t.Fatalf("route endpoints = %d..%d, want 1..4", res.Nodes[0].nodeID, res.Nodes[len(res.Nodes)-1].nodeID)
	}
	if res.TotalCost <= 0 {
		t.Fatalf("TotalCost = %v, want > 0", res.TotalCost)
	}
}

func TestRouteAddsTargetSeedRemainingCost(t *testing.T) {
	nodes := linearGraph(2)
	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	noTail, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 2, current: 0}}, nodes[1].Coord, nodes[2].Coord)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}

	withTail, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 2, current: 50}}, nodes[1].Coord, nodes[2].Coord)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}

	if withTail.TotalCost <= noTail.TotalCost {
		t.Fatalf("TotalCost with a 50-cost target tail (%v) should exceed TotalCost with none (%v)", withTail.TotalCost, noTail.TotalCost)
	}
	if withTail.TotalCost-noTail.TotalCost < 49 {
		t.Fatalf("TotalCost difference = %v, want roughly the added 50 last-mile cost", withTail.TotalCost-noTail.TotalCost)
	}
}

func TestRouteNoPathReturnsErrNoRoute(t *testing.T) {
	nodes := linearGraph(2)
	// Detach the only path so node 2 is unreachable.
	nodes[1].Paths = nil
	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	_, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 2, current: 0}}, nodes[1].Coord, nodes[2].Coord)
	if err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

func TestRouteHonorsTurnExclude(t *testing.T) {
	nodes := linearGraph(3)
	// Forbid the only path leaving node 2 when entered via object 0 (the
	// default TargetObject every linearGraph path carries).
	nodes[2].Excludes = []routegraph.Exclude{{Source: 0, TargetIndex: 0}}
	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	_, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 3, current: 0}}, nodes[1].Coord, nodes[3].Coord)
	if err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute (turn restriction should block the only path)", err)
	}
}

func TestRouteCostLimitPrunesFarDetour(t *testing.T) {
	// Start and target are close together, but the only path between
	// them is a huge detour far beyond any reasonable cost_limit multiple
	// of the direct airline estimate.
	nodes := map[uint64]*routegraph.RouteNode{
		1: {ID: 1, Coord: coord(0, 0)},
		2: {ID: 2, Coord: coord(10, 10)}, // ~1500km away
		3: {ID: 3, Coord: coord(0, 0.001)},
	}
	nodes[1].Paths = []routegraph.Path{{TargetID: 2, TargetCoord: nodes[2].Coord, Distance: geo.Haversine(0, 0, 10, 10), Usable: true}}
	nodes[2].Paths = []routegraph.Path{{TargetID: 3, TargetCoord: nodes[3].Coord, Distance: geo.Haversine(10, 10, 0, 0.001), Usable: true}}

	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	_, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 3, current: 0}}, nodes[1].Coord, nodes[3].Coord)
	if err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute (cost_limit should prune the detour through node 2)", err)
	}
}

func TestRoutePassThroughPreventsExitingRestrictedZoneEarly(t *testing.T) {
	// 1 -(restricted)-> 2 -(open)-> 3, target is node 4 reached only by
	// continuing past node 3; node 2 must not be treated as a shortcut
	// back onto the open network once entered via a restricted edge.
	nodes := linearGraph(4)
	nodes[1].Paths[0].Restricted = true

	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	// Target seed is node 2 itself (the restricted edge's own destination):
	// reachable, since reaching a target seed is always allowed.
	res, err := Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 2, current: 0}}, nodes[1].Coord, nodes[2].Coord)
	if err != nil {
		t.Fatalf("Route() to the restricted edge's own target = %v, want success", err)
	}
	if res.Nodes[len(res.Nodes)-1].nodeID != 2 {
		t.Fatalf("last node = %d, want 2", res.Nodes[len(res.Nodes)-1].nodeID)
	}

	// Target seed is node 4, reachable only by continuing past node 2
	// onto the open (non-restricted) network -- forbidden by the
	// pass-through rule.
	_, err = Route(context.Background(), g, st, seedsFor(1), []openItem{{nodeID: 4, current: 0}}, nodes[1].Coord, nodes[4].Coord)
	if err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute (pass-through past a restricted entry should be blocked)", err)
	}
}

func TestRouteUsesVariantSpeedOverVehicleCeiling(t *testing.T) {
	// A single edge tagged with a residential-street variant (well under
	// profile.Car's ceiling speed) should cost more than the same edge
	// with no variant table, which falls back to the ceiling.
	nodes := linearGraph(2)
	variants := routegraph.NewVariantTable()
	residential := variants.Intern(routegraph.ObjectVariant{HighwayType: "residential", MaxSpeedKPH: 20})
	nodes[1].Paths[0].Variant = residential

	g := NewGraph(nodes)

	withVariants := State{Vehicle: profile.Car, Variants: variants}
	slow, err := Route(context.Background(), g, withVariants, seedsFor(1), []openItem{{nodeID: 2, current: 0}}, nodes[1].Coord, nodes[2].Coord)
	if err != nil {
		t.Fatalf("Route() with variants error = %v", err)
	}

	noVariants := State{Vehicle: profile.Car}
	fast, err := Route(context.Background(), g, noVariants, seedsFor(1), []openItem{{nodeID: 2, current: 0}}, nodes[1].Coord, nodes[2].Coord)
	if err != nil {
		t.Fatalf("Route() without variants error = %v", err)
	}

	if slow.TotalCost <= fast.TotalCost {
		t.Fatalf("TotalCost with a residential variant (%v) should exceed the ceiling-speed fallback (%v)", slow.TotalCost, fast.TotalCost)
	}
}

func TestRouteCancellation(t *testing.T) {
	// A long chain forces enough iterations to trip the every-256
	// cancellation check before the open set empties.
	nodes := linearGraph(2000)
	g := NewGraph(nodes)
	st := State{Vehicle: profile.Car}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Route(ctx, g, st, seedsFor(1), []openItem{{nodeID: 2000, current: 0}}, nodes[1].Coord, nodes[2000].Coord)
	if err != ErrCancelled {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}
