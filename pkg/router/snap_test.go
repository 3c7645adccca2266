package router

import (
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

func twoNodeGraph() map[uint64]*routegraph.RouteNode {
	n1 := &routegraph.RouteNode{ID: 1, Coord: coord(0, 0)}
	n2 := &routegraph.RouteNode{ID: 2, Coord: coord(0, 0.01)}
	n1.Paths = []routegraph.Path{{TargetID: 2, TargetCoord: n2.Coord, Distance: 1000, Usable: true}}
	return map[uint64]*routegraph.RouteNode{1: n1, 2: n2}
}

func TestSnapFindsNearestSegment(t *testing.T) {
	s := NewSnapper(twoNodeGraph())

	res, err := s.Snap(0.0001, 0.005)
	if err != nil {
		t.Fatalf("Snap() error = %v", err)
	}
	if res.From != 1 || res.To != 2 {
		t.Fatalf("snap From/To = %d/%d, want 1/2", res.From, res.To)
	}
	if res.Ratio <= 0 || res.Ratio >= 1 {
		t.Fatalf("Ratio = %v, want strictly between 0 and 1 for a midpoint query", res.Ratio)
	}
}

func TestSnapIgnoresUnusablePaths(t *testing.T) {
	nodes := twoNodeGraph()
	nodes[1].Paths[0].Usable = false
	s := NewSnapper(nodes)

	_, err := s.Snap(0, 0.005)
	if err != ErrPointTooFar {
		t.Fatalf("err = %v, want ErrPointTooFar (no usable segment indexed)", err)
	}
}

func TestSnapTooFarReturnsError(t *testing.T) {
	s := NewSnapper(twoNodeGraph())

	_, err := s.Snap(50, 50)
	if err != ErrPointTooFar {
		t.Fatalf("err = %v, want ErrPointTooFar", err)
	}
}

func TestSnapIncludesShapePoints(t *testing.T) {
	n1 := &routegraph.RouteNode{ID: 1, Coord: coord(0, 0)}
	n2 := &routegraph.RouteNode{ID: 2, Coord: coord(0, 0.02)}
	n1.Paths = []routegraph.Path{{
		TargetID:    2,
		TargetCoord: n2.Coord,
		Distance:    2000,
		Usable:      true,
		Shape:       []geo.GeoCoord{coord(0.005, 0.01)},
	}}
	nodes := map[uint64]*routegraph.RouteNode{1: n1, 2: n2}
	s := NewSnapper(nodes)

	res, err := s.Snap(0.005, 0.01)
	if err != nil {
		t.Fatalf("Snap() error = %v", err)
	}
	if res.Dist > 2000 {
		t.Fatalf("Dist = %v meters, want a close snap onto the shape vertex", res.Dist)
	}
}
