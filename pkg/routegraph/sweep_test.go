package routegraph

import (
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/paulmach/osm"
)

func TestSweep1FindsSharedNodeAsJunction(t *testing.T) {
	ways := []Way{
		{ObjectOffset: 1, NodeIDs: []osm.NodeID{1, 2, 3}, Highway: "residential"},
		{ObjectOffset: 2, NodeIDs: []osm.NodeID{3, 4, 5}, Highway: "residential"},
	}
	junctions := Sweep1(ways)

	if !junctions[1] || !junctions[3] || !junctions[5] {
		t.Errorf("expected endpoints and the shared node to be junctions, got %v", junctions)
	}
	if junctions[2] || junctions[4] {
		t.Errorf("mid-way nodes referenced only once should not be junctions, got %v", junctions)
	}
}

func TestSweep2CollectsObjectsAtJunction(t *testing.T) {
	ways := []Way{
		{ObjectOffset: 1, NodeIDs: []osm.NodeID{1, 2, 3}, Highway: "residential"},
		{ObjectOffset: 2, NodeIDs: []osm.NodeID{3, 4, 5}, Highway: "residential"},
	}
	junctions := Sweep1(ways)
	objects := Sweep2(ways, junctions)

	if len(objects[3]) != 2 {
		t.Fatalf("expected node 3 to see both ways, got %v", objects[3])
	}
}

func TestDerivePathsComputesDistanceBetweenJunctions(t *testing.T) {
	coords := map[osm.NodeID]geo.GeoCoord{
		1: {Lat: 0, Lon: 0},
		2: {Lat: 0, Lon: 0.001},
		3: {Lat: 0, Lon: 0.002},
	}
	ways := []Way{
		{ObjectOffset: 1, NodeIDs: []osm.NodeID{1, 2, 3}, Highway: "residential"},
	}
	junctions := Sweep1(ways)
	nodes := DerivePaths(ways, junctions, coords)

	n1, ok := nodes[1]
	if !ok || len(n1.Paths) != 1 {
		t.Fatalf("expected node 1 to have one forward path, got %+v", n1)
	}
	if n1.Paths[0].Distance <= 0 {
		t.Errorf("expected positive distance, got %v", n1.Paths[0].Distance)
	}
}

func TestDerivePathsRespectsOneway(t *testing.T) {
	coords := map[osm.NodeID]geo.GeoCoord{
		1: {Lat: 0, Lon: 0},
		2: {Lat: 0, Lon: 0.001},
	}
	ways := []Way{
		{ObjectOffset: 1, NodeIDs: []osm.NodeID{1, 2}, Highway: "residential", Oneway: "yes"},
	}
	junctions := Sweep1(ways)
	nodes := DerivePaths(ways, junctions, coords)

	if len(nodes[2].Paths) != 0 {
		t.Errorf("oneway street should produce no backward path from node 2, got %+v", nodes[2].Paths)
	}
	if len(nodes[1].Paths) != 1 {
		t.Errorf("expected exactly one forward path from node 1, got %+v", nodes[1].Paths)
	}
}
