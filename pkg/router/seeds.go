package router

import (
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// seedSpeed resolves the matched segment's real (max_speed, grade) the
// same way variantSpeed does for a full edge, so a partial first/last
// segment is costed consistently with every other edge in the search.
func seedSpeed(v profile.Vehicle, snap SnapResult, variants *routegraph.VariantTable) (speedKPH, gradePercent float64) {
	if variant, ok := variants.Variant(snap.segmentVariant); ok {
		return variant.MaxSpeedKPH, variant.GradePct
	}
	return v.MaxSpeedKPH(), 0
}

// StartSeeds builds the up-to-two open-set seeds for a snapped start
// point (spec §4.8 "Start expansion"): one reachable forward along the
// snapped path to its target node, one reachable backward to its source
// node, each costed by the partial-segment distance from the snap point.
func StartSeeds(snap SnapResult, v profile.Vehicle, variants *routegraph.VariantTable) []openItem {
	var seeds []openItem
	forwardDist := snap.forwardDistance()
	backwardDist := snap.backwardDistance()
	speed, grade := seedSpeed(v, snap, variants)

	seeds = append(seeds, openItem{
		nodeID:  snap.To,
		current: v.EdgeCost(forwardDist, speed, grade),
	})
	seeds = append(seeds, openItem{
		nodeID:  snap.From,
		current: v.EdgeCost(backwardDist, speed, grade),
	})
	return seeds
}

// TargetSeeds mirrors StartSeeds for the query's destination point: the
// two candidate route-nodes the target snapped between, each carrying
// the remaining last-mile cost from that node to the actual target
// coordinate, added onto the search cost once a seed is reached.
func TargetSeeds(snap SnapResult, v profile.Vehicle, variants *routegraph.VariantTable) []openItem {
	forwardDist := snap.forwardDistance()
	backwardDist := snap.backwardDistance()
	speed, grade := seedSpeed(v, snap, variants)
	return []openItem{
		{nodeID: snap.To, current: v.EdgeCost(forwardDist, speed, grade)},
		{nodeID: snap.From, current: v.EdgeCost(backwardDist, speed, grade)},
	}
}

func (s SnapResult) forwardDistance() float64 {
	return s.pathDistance() * (1 - s.Ratio)
}

func (s SnapResult) backwardDistance() float64 {
	return s.pathDistance() * s.Ratio
}

// pathDistance is filled in by Snap from the matched segment's total
// length; kept as a method here so StartSeeds reads naturally.
func (s SnapResult) pathDistance() float64 {
	return s.segmentDistance
}
