package routegraph

import (
	"path/filepath"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
)

func TestReadTileTableSplitsDistantNodesAcrossTiles(t *testing.T) {
	a := &RouteNode{ID: 1, Coord: geo.GeoCoord{Lat: 1.3, Lon: 103.8}, Paths: []Path{{TargetID: 2, Distance: 5000, Usable: true}}}
	b := &RouteNode{ID: 2, Coord: geo.GeoCoord{Lat: 48.2, Lon: 11.6}}

	path := filepath.Join(t.TempDir(), "router.dat")
	if err := WriteRouteNodes([]*RouteNode{a, b}, NewVariantTable(), defaultTileMagnification, path); err != nil {
		t.Fatalf("WriteRouteNodes failed: %v", err)
	}

	magnification, ranges, err := ReadTileTable(path)
	if err != nil {
		t.Fatalf("ReadTileTable failed: %v", err)
	}
	if magnification != defaultTileMagnification {
		t.Errorf("magnification = %d, want %d", magnification, defaultTileMagnification)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 tiles for two far-apart nodes, got %d: %+v", len(ranges), ranges)
	}
	for _, r := range ranges {
		if r.Count != 1 {
			t.Errorf("tile %+v has count %d, want 1", r.Key, r.Count)
		}
		if r.End <= r.Offset {
			t.Errorf("tile %+v has non-positive span [%d, %d)", r.Key, r.Offset, r.End)
		}
	}
}

func TestReadTileRawDecodeTileNodesRoundTrip(t *testing.T) {
	a := &RouteNode{ID: 1, Coord: geo.GeoCoord{Lat: 1.3, Lon: 103.8}, Paths: []Path{{TargetID: 2, Distance: 5000, Usable: true}}}
	b := &RouteNode{ID: 2, Coord: geo.GeoCoord{Lat: 48.2, Lon: 11.6}}

	path := filepath.Join(t.TempDir(), "router.dat")
	if err := WriteRouteNodes([]*RouteNode{a, b}, NewVariantTable(), defaultTileMagnification, path); err != nil {
		t.Fatalf("WriteRouteNodes failed: %v", err)
	}

	_, ranges, err := ReadTileTable(path)
	if err != nil {
		t.Fatalf("ReadTileTable failed: %v", err)
	}

	var gotIDs []uint64
	for _, r := range ranges {
		raw, err := ReadTileRaw(path, r)
		if err != nil {
			t.Fatalf("ReadTileRaw failed: %v", err)
		}
		nodes, err := DecodeTileNodes(raw, r.Count)
		if err != nil {
			t.Fatalf("DecodeTileNodes failed: %v", err)
		}
		if len(nodes) != int(r.Count) {
			t.Fatalf("decoded %d nodes, want %d", len(nodes), r.Count)
		}
		for id := range nodes {
			gotIDs = append(gotIDs, id)
		}
	}
	if len(gotIDs) != 2 {
		t.Fatalf("expected 2 node ids total across tiles, got %v", gotIDs)
	}
}
