package routegraph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/osmsource"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

// Params configures the graph-build pipeline's output layout.
type Params struct {
	OutputDir         string
	TileMagnification uint8
	Vehicle           profile.Vehicle
}

// Graph is the in-memory result of Build, ready for either on-disk
// layout's writer or direct use by pkg/router in tests.
type Graph struct {
	Nodes     map[osm.NodeID]*RouteNode
	Variants  *VariantTable
	TypeNames []string
}

// Build runs the §4.7 pipeline: resolve routable ways for the target
// vehicle, run Sweep1/Sweep2 to discover junctions and their incident
// objects, derive paths between junctions, resolve turn restrictions,
// and intern every path's (highway type, speed, grade) into the
// variant table.
func Build(res *osmsource.Result, restrictions []Restriction, p profile.Vehicle, log *zap.Logger) *Graph {
	allWays := WaysFromResult(res)
	ways := make([]Way, 0, len(allWays))
	for _, w := range allWays {
		if p.CanUse(w.Highway, w.Access) {
			ways = append(ways, w)
		}
	}
	log.Info("routegraph: filtered routable ways", zap.Int("total", len(allWays)), zap.Int("usable", len(ways)))

	junctions := Sweep1(ways)
	objectsAt := Sweep2(ways, junctions)
	nodes := DerivePaths(ways, junctions, res.NodeCoord)

	for id, objs := range objectsAt {
		if n, ok := nodes[id]; ok {
			n.Objects = appendAllUnique(n.Objects, objs)
		}
	}

	ResolveExcludes(nodes, restrictions)

	variants := NewVariantTable()
	typeIndex := make(map[string]int)
	var typeNames []string
	internWay := func(w Way) uint16 {
		if _, ok := typeIndex[w.Highway]; !ok {
			typeIndex[w.Highway] = len(typeNames)
			typeNames = append(typeNames, w.Highway)
		}
		grade := gradePercent(w, res.NodeCoord)
		return variants.Intern(ObjectVariant{HighwayType: w.Highway, MaxSpeedKPH: effectiveSpeed(w, p), GradePct: grade})
	}
	wayByOffset := make(map[uint64]Way, len(ways))
	for _, w := range ways {
		wayByOffset[w.ObjectOffset] = w
	}
	for _, n := range nodes {
		for i := range n.Paths {
			if w, ok := wayByOffset[n.Paths[i].TargetObject]; ok {
				n.Paths[i].Variant = internWay(w)
			}
		}
	}

	log.Info("routegraph: built route-node graph", zap.Int("nodes", len(nodes)), zap.Int("variants", len(variants.list)))

	return &Graph{Nodes: nodes, Variants: variants, TypeNames: typeNames}
}

func appendAllUnique(s []uint64, more []uint64) []uint64 {
	for _, v := range more {
		s = appendUnique(s, v)
	}
	return s
}

func effectiveSpeed(w Way, v profile.Vehicle) float64 {
	if w.MaxSpeedKPH > 0 {
		return w.MaxSpeedKPH
	}
	return v.MaxSpeedKPH()
}

// gradePercent estimates grade from the way's endpoint elevation delta
// over its length; without elevation data in this corpus's node stream
// this always returns 0 (flat), a documented simplification -- see
// DESIGN.md's routegraph entry.
func gradePercent(w Way, coords map[osm.NodeID]geo.GeoCoord) float64 {
	return 0
}

// Write emits both on-disk layouts (tiled §6.3 and legacy §9) plus the
// object-variant (§6.4) and intersections (§6.2) files, one set per
// vehicle profile as spec §4.7's last step requires.
func Write(g *Graph, p Params) error {
	nodes := make([]*RouteNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}

	vehicleDir := filepath.Join(p.OutputDir, p.Vehicle.String())
	if err := os.MkdirAll(vehicleDir, 0o755); err != nil {
		return fmt.Errorf("routegraph: create output dir %s: %w", vehicleDir, err)
	}

	if err := WriteRouteNodes(nodes, g.Variants, p.TileMagnification, filepath.Join(vehicleDir, "router.dat")); err != nil {
		return err
	}
	if err := WriteLegacyRouteNodes(nodes, filepath.Join(vehicleDir, "router2.dat")); err != nil {
		return err
	}
	if err := WriteObjectVariants(g.Variants, g.TypeNames, filepath.Join(vehicleDir, "routevariant.dat")); err != nil {
		return err
	}
	if err := WriteIntersections(nodes, filepath.Join(vehicleDir, "intersections.dat")); err != nil {
		return err
	}
	return nil
}
