package router

import (
	"testing"

	"github.com/mapstack/osmindex/pkg/profile"
)

func TestStartSeedsCostsBothDirections(t *testing.T) {
	snap := SnapResult{From: 1, To: 2, Ratio: 0.25, segmentDistance: 400}
	seeds := StartSeeds(snap, profile.Car, nil)

	if len(seeds) != 2 {
		t.Fatalf("len(seeds) = %d, want 2", len(seeds))
	}
	var toSeed, fromSeed *openItem
	for i := range seeds {
		switch seeds[i].nodeID {
		case 2:
			toSeed = &seeds[i]
		case 1:
			fromSeed = &seeds[i]
		}
	}
	if toSeed == nil || fromSeed == nil {
		t.Fatalf("seeds = %+v, want one for From and one for To", seeds)
	}
	// Ratio 0.25 means the snap point is closer to From than To, so the
	// forward (to To) cost should exceed the backward (to From) cost.
	if toSeed.current <= fromSeed.current {
		t.Fatalf("forward cost %v should exceed backward cost %v at ratio 0.25", toSeed.current, fromSeed.current)
	}
}

func TestTargetSeedsCostsMirrorStartSeeds(t *testing.T) {
	snap := SnapResult{From: 10, To: 20, Ratio: 0.5, segmentDistance: 1000}
	start := StartSeeds(snap, profile.Bicycle, nil)
	target := TargetSeeds(snap, profile.Bicycle, nil)

	for i := range start {
		if start[i].nodeID != target[i].nodeID {
			t.Fatalf("TargetSeeds node order = %v, want to mirror StartSeeds %v", target, start)
		}
		if start[i].current != target[i].current {
			t.Fatalf("TargetSeeds cost = %v, want to match StartSeeds cost %v for the same ratio", target[i].current, start[i].current)
		}
	}
}

func TestTargetSeedsZeroRemainingAtExactNode(t *testing.T) {
	snap := SnapResult{From: 1, To: 2, Ratio: 0, segmentDistance: 500}
	seeds := TargetSeeds(snap, profile.Foot, nil)

	for _, s := range seeds {
		if s.nodeID == 1 && s.current != 0 {
			t.Fatalf("backward cost at Ratio 0 (snap exactly at From) = %v, want 0", s.current)
		}
	}
}
