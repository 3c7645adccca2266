package router

import (
	"context"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// Query is the public route-graph entry point (spec §6.5's behavioral
// API): snap both endpoints, run A*, and dense-expand the result into a
// renderer-ready Description. The fragments from the snapped start point
// to the first route-node and from the last route-node to the snapped
// target point are added as straight segments; shape points inside those
// fragments are not included. twins is nil for a single-database query;
// a *DatabaseSet is handed to Route for twin expansion, but TwinsOf
// returns no ids (see DatabaseSet), so the search stays within g.
// variants is nil when no object-variant table was loaded for this
// (database, vehicle), which falls every edge back to the vehicle's
// ceiling speed.
func Query(ctx context.Context, snapper *Snapper, g Graph, v profile.Vehicle, start, target geo.GeoCoord, twins *DatabaseSet, variants *routegraph.VariantTable) (*Description, error) {
	startSnap, err := snapper.Snap(start.Lat, start.Lon)
	if err != nil {
		return nil, err
	}
	targetSnap, err := snapper.Snap(target.Lat, target.Lon)
	if err != nil {
		return nil, err
	}

	st := State{Vehicle: v, Variants: variants, Twins: twins}
	res, err := Route(ctx, g, st, StartSeeds(startSnap, v, variants), TargetSeeds(targetSnap, v, variants), start, target)
	if err != nil {
		return nil, err
	}

	desc := Describe(g, res)
	fragment := func(s SnapResult, nodeID uint64) float64 {
		if nodeID == s.To {
			return s.forwardDistance()
		}
		return s.backwardDistance()
	}
	desc.TotalDistance += fragment(startSnap, res.Nodes[0].nodeID) + fragment(targetSnap, res.Nodes[len(res.Nodes)-1].nodeID)
	desc.Points = append([]geo.GeoCoord{startSnap.Coord}, desc.Points...)
	desc.Points = append(desc.Points, targetSnap.Coord)
	return desc, nil
}
