package routegraph

import (
	"path/filepath"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/ioenc"
)

func TestWriteLegacyRouteNodesPatchesTargetOffsets(t *testing.T) {
	a := &RouteNode{ID: 1, Coord: geo.GeoCoord{Lat: 1, Lon: 1}, Paths: []Path{
		{TargetID: 2, Distance: 100},
	}}
	b := &RouteNode{ID: 2, Coord: geo.GeoCoord{Lat: 2, Lon: 2}}

	path := filepath.Join(t.TempDir(), "legacy.dat")
	if err := WriteLegacyRouteNodes([]*RouteNode{a, b}, path); err != nil {
		t.Fatalf("WriteLegacyRouteNodes failed: %v", err)
	}

	s, err := ioenc.OpenScanner(path)
	if err != nil {
		t.Fatalf("OpenScanner failed: %v", err)
	}
	defer s.Close()

	count, err := s.ReadU32()
	if err != nil || count != 2 {
		t.Fatalf("expected node count 2, got %d err %v", count, err)
	}

	nodeID, err := s.ReadVarintUnsigned()
	if err != nil || nodeID != 1 {
		t.Fatalf("expected first node id 1, got %d err %v", nodeID, err)
	}
	if _, _, err := s.ReadCoord(); err != nil {
		t.Fatalf("ReadCoord failed: %v", err)
	}
	objCount, err := s.ReadVarintUnsigned()
	if err != nil || objCount != 0 {
		t.Fatalf("expected 0 objects, got %d err %v", objCount, err)
	}
	pathCount, err := s.ReadU32()
	if err != nil || pathCount != 1 {
		t.Fatalf("expected 1 path, got %d err %v", pathCount, err)
	}

	targetOffset, err := s.ReadFileOffset(8)
	if err != nil {
		t.Fatalf("ReadFileOffset failed: %v", err)
	}
	if targetOffset == 0 {
		t.Fatalf("expected target offset to be patched to node b's file position, got 0")
	}

	if err := s.SetPos(int64(targetOffset)); err != nil {
		t.Fatalf("SetPos failed: %v", err)
	}
	targetNodeID, err := s.ReadVarintUnsigned()
	if err != nil || targetNodeID != 2 {
		t.Fatalf("expected patched offset to point at node id 2, got %d err %v", targetNodeID, err)
	}
}

func TestWriteLegacyRouteNodesLeavesUnresolvedTargetZero(t *testing.T) {
	a := &RouteNode{ID: 1, Coord: geo.GeoCoord{Lat: 1, Lon: 1}, Paths: []Path{
		{TargetID: 999, Distance: 50},
	}}

	path := filepath.Join(t.TempDir(), "legacy_dangling.dat")
	if err := WriteLegacyRouteNodes([]*RouteNode{a}, path); err != nil {
		t.Fatalf("WriteLegacyRouteNodes failed: %v", err)
	}

	s, err := ioenc.OpenScanner(path)
	if err != nil {
		t.Fatalf("OpenScanner failed: %v", err)
	}
	defer s.Close()

	if _, err := s.ReadU32(); err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if _, err := s.ReadVarintUnsigned(); err != nil {
		t.Fatalf("ReadVarintUnsigned failed: %v", err)
	}
	if _, _, err := s.ReadCoord(); err != nil {
		t.Fatalf("ReadCoord failed: %v", err)
	}
	if _, err := s.ReadVarintUnsigned(); err != nil {
		t.Fatalf("ReadVarintUnsigned failed: %v", err)
	}
	if _, err := s.ReadU32(); err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}

	targetOffset, err := s.ReadFileOffset(8)
	if err != nil {
		t.Fatalf("ReadFileOffset failed: %v", err)
	}
	if targetOffset != 0 {
		t.Fatalf("expected unresolved cross-database target to stay 0, got %d", targetOffset)
	}
}
