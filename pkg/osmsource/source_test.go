package osmsource

import (
	"testing"

	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/paulmach/osm"
)

func TestRoutableWaysFiltersByVehicle(t *testing.T) {
	nodeIDs := []osm.NodeID{1, 2}
	r := &Result{
		Ways: []RawWay{
			{ID: 1, Highway: "motorway", NodeIDs: nodeIDs},
			{ID: 2, Highway: "footway", NodeIDs: nodeIDs},
			{ID: 3, Highway: "residential", Access: "private", NodeIDs: nodeIDs},
		},
	}

	car := r.RoutableWays(profile.Car)
	if len(car) != 1 || car[0].ID != 1 {
		t.Fatalf("expected only the motorway way to be car-routable, got %+v", car)
	}

	foot := r.RoutableWays(profile.Foot)
	if len(foot) != 1 || foot[0].ID != 2 {
		t.Fatalf("expected only the footway to be foot-routable, got %+v", foot)
	}
}
