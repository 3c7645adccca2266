package router

import (
	"path/filepath"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/routecache"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

func writeTileFile(t *testing.T) (string, geo.GeoCoord, geo.GeoCoord) {
	t.Helper()
	a := geo.GeoCoord{Lat: 1.3, Lon: 103.8}
	b := geo.GeoCoord{Lat: 48.2, Lon: 11.6}
	n1 := &routegraph.RouteNode{ID: 1, Coord: a, Paths: []routegraph.Path{{TargetID: 2, Distance: 5000, Usable: true}}}
	n2 := &routegraph.RouteNode{ID: 2, Coord: b}

	path := filepath.Join(t.TempDir(), "router.dat")
	if err := routegraph.WriteRouteNodes([]*routegraph.RouteNode{n1, n2}, routegraph.NewVariantTable(), 14, path); err != nil {
		t.Fatalf("WriteRouteNodes failed: %v", err)
	}
	return path, a, b
}

func TestTileGraphDecodesOnDemandAndResolvesTargetCoord(t *testing.T) {
	path, _, b := writeTileFile(t)
	cache := routecache.NewLRU(16)

	g, err := NewTileGraph(path, "default", cache)
	if err != nil {
		t.Fatalf("NewTileGraph failed: %v", err)
	}
	if g.NumTiles() != 2 {
		t.Fatalf("NumTiles() = %d, want 2", g.NumTiles())
	}

	n1, ok := g.Node(1)
	if !ok {
		t.Fatal("Node(1) should be found by scanning both tiles")
	}
	if len(n1.Paths) != 1 || n1.Paths[0].TargetCoord != b {
		t.Fatalf("Node(1)'s path TargetCoord = %+v, want resolved to %+v", n1.Paths[0].TargetCoord, b)
	}

	if _, ok := g.Node(999); ok {
		t.Fatal("Node(999) should not be found")
	}
}

func TestTileGraphReusesCacheAcrossInstances(t *testing.T) {
	path, _, _ := writeTileFile(t)
	cache := routecache.NewLRU(16)

	g1, err := NewTileGraph(path, "default", cache)
	if err != nil {
		t.Fatalf("NewTileGraph failed: %v", err)
	}
	if _, ok := g1.Node(1); !ok {
		t.Fatal("Node(1) should be found")
	}
	if _, ok := g1.Node(2); !ok {
		t.Fatal("Node(2) should be found")
	}
	if cache.Len() != 2 {
		t.Fatalf("cache.Len() = %d, want 2 tiles cached", cache.Len())
	}

	// A second graph over the same database reuses the now-warm cache.
	g2, err := NewTileGraph(path, "default", cache)
	if err != nil {
		t.Fatalf("NewTileGraph failed: %v", err)
	}
	if _, ok := g2.Node(2); !ok {
		t.Fatal("Node(2) should be found via the cache")
	}
}
