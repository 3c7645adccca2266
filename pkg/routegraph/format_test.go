package routegraph

import (
	"path/filepath"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/ioenc"
)

func TestVariantTableInternDeduplicates(t *testing.T) {
	table := NewVariantTable()
	a := table.Intern(ObjectVariant{HighwayType: "residential", MaxSpeedKPH: 50, GradePct: 0})
	b := table.Intern(ObjectVariant{HighwayType: "residential", MaxSpeedKPH: 50, GradePct: 0})
	c := table.Intern(ObjectVariant{HighwayType: "motorway", MaxSpeedKPH: 130, GradePct: 0})
	if a != b {
		t.Fatalf("identical variants must intern to the same index: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("distinct variants must not collide")
	}
}

func TestWriteObjectVariantsRoundTrip(t *testing.T) {
	table := NewVariantTable()
	table.Intern(ObjectVariant{HighwayType: "residential", MaxSpeedKPH: 50, GradePct: 1.5})
	table.Intern(ObjectVariant{HighwayType: "motorway", MaxSpeedKPH: 130, GradePct: 0})

	path := filepath.Join(t.TempDir(), "variants.dat")
	if err := WriteObjectVariants(table, []string{"residential", "motorway"}, path); err != nil {
		t.Fatalf("WriteObjectVariants failed: %v", err)
	}

	s, err := ioenc.OpenScanner(path)
	if err != nil {
		t.Fatalf("OpenScanner failed: %v", err)
	}
	defer s.Close()

	count, err := s.ReadU32()
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d err %v", count, err)
	}
	typeID, err := s.ReadU32()
	if err != nil || typeID != 0 {
		t.Fatalf("expected first type_id 0, got %d err %v", typeID, err)
	}
	speed, err := s.ReadF64()
	if err != nil || speed != 50 {
		t.Fatalf("expected speed 50, got %v err %v", speed, err)
	}
}

func TestReadObjectVariantsRoundTrip(t *testing.T) {
	table := NewVariantTable()
	table.Intern(ObjectVariant{HighwayType: "residential", MaxSpeedKPH: 50, GradePct: 1.5})
	table.Intern(ObjectVariant{HighwayType: "motorway", MaxSpeedKPH: 130, GradePct: 0})

	path := filepath.Join(t.TempDir(), "variants.dat")
	if err := WriteObjectVariants(table, []string{"residential", "motorway"}, path); err != nil {
		t.Fatalf("WriteObjectVariants failed: %v", err)
	}

	got, err := ReadObjectVariants(path)
	if err != nil {
		t.Fatalf("ReadObjectVariants failed: %v", err)
	}

	first, ok := got.Variant(0)
	if !ok || first.MaxSpeedKPH != 50 || first.GradePct != 1.5 {
		t.Fatalf("Variant(0) = %+v, ok=%v, want MaxSpeedKPH=50 GradePct=1.5", first, ok)
	}
	second, ok := got.Variant(1)
	if !ok || second.MaxSpeedKPH != 130 {
		t.Fatalf("Variant(1) = %+v, ok=%v, want MaxSpeedKPH=130", second, ok)
	}
	if _, ok := got.Variant(2); ok {
		t.Fatalf("Variant(2) ok = true, want false (out of range)")
	}
}

func TestVariantTableVariantNilReceiverSafe(t *testing.T) {
	var table *VariantTable
	if _, ok := table.Variant(0); ok {
		t.Fatalf("Variant() on a nil table ok = true, want false")
	}
}

func TestWriteIntersectionsRoundTrip(t *testing.T) {
	nodes := []*RouteNode{
		{ID: 7, Objects: []uint64{30, 10, 20}},
	}
	path := filepath.Join(t.TempDir(), "intersections.dat")
	if err := WriteIntersections(nodes, path); err != nil {
		t.Fatalf("WriteIntersections failed: %v", err)
	}

	s, err := ioenc.OpenScanner(path)
	if err != nil {
		t.Fatalf("OpenScanner failed: %v", err)
	}
	defer s.Close()

	count, err := s.ReadU32()
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d err %v", count, err)
	}
	nodeID, err := s.ReadVarintUnsigned()
	if err != nil || nodeID != 7 {
		t.Fatalf("expected node id 7, got %d err %v", nodeID, err)
	}
	objCount, err := s.ReadVarintUnsigned()
	if err != nil || objCount != 3 {
		t.Fatalf("expected object count 3, got %d err %v", objCount, err)
	}
	first, err := s.ReadVarintUnsigned()
	if err != nil || first != 10 {
		t.Fatalf("expected objects sorted ascending, first 10, got %d err %v", first, err)
	}
}

func TestWriteRouteNodesGroupsByTile(t *testing.T) {
	nodes := []*RouteNode{
		{ID: 1, Coord: geo.GeoCoord{Lat: 48.1, Lon: 11.5}},
		{ID: 2, Coord: geo.GeoCoord{Lat: 48.1, Lon: 11.5}},
		{ID: 3, Coord: geo.GeoCoord{Lat: -10, Lon: -20}},
	}
	path := filepath.Join(t.TempDir(), "routenodes.dat")
	if err := WriteRouteNodes(nodes, NewVariantTable(), defaultTileMagnification, path); err != nil {
		t.Fatalf("WriteRouteNodes failed: %v", err)
	}

	s, err := ioenc.OpenScanner(path)
	if err != nil {
		t.Fatalf("OpenScanner failed: %v", err)
	}
	defer s.Close()

	indexOffset, err := s.ReadFileOffset(8)
	if err != nil {
		t.Fatalf("ReadFileOffset failed: %v", err)
	}
	nodeCount, err := s.ReadU32()
	if err != nil || nodeCount != 3 {
		t.Fatalf("expected node_count 3, got %d err %v", nodeCount, err)
	}

	if err := s.SetPos(int64(indexOffset)); err != nil {
		t.Fatalf("SetPos failed: %v", err)
	}
	tileCount, err := s.ReadU32()
	if err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if tileCount != 2 {
		t.Fatalf("expected 2 distinct tiles (two nodes share one, one is far away), got %d", tileCount)
	}
}
