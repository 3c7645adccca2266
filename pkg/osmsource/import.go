package osmsource

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

// placeRanks are the OSM place=* values treated as populated places (spec
// §4.4 step 3); anything else (locality, island, ...) is skipped.
var placeRanks = map[string]bool{
	"city": true, "town": true, "village": true, "hamlet": true,
	"suburb": true, "borough": true, "quarter": true,
}

// Import reads an OSM PBF file in three forward passes (relations, then
// ways, then nodes; the inverse of file order, so each pass knows which
// IDs the next pass must resolve) and returns every stream both builders
// need. rs must support Seek back to the start between passes.
func Import(ctx context.Context, rs io.ReadSeeker, log *zap.Logger) (*Result, error) {
	boundaries, boundaryWayIDs, restrictions, err := scanRelations(ctx, rs, log)
	if err != nil {
		return nil, fmt.Errorf("pass 1 (relations): %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	ways, boundaryRingNodes, referencedNodes, err := scanWays(ctx, rs, boundaryWayIDs, log)
	if err != nil {
		return nil, fmt.Errorf("pass 2 (ways): %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 3: %w", err)
	}

	nodeCoord, places, addresses, pois, err := scanNodes(ctx, rs, referencedNodes, log)
	if err != nil {
		return nil, fmt.Errorf("pass 3 (nodes): %w", err)
	}

	for i := range boundaries {
		for _, wayID := range boundaryWayIDs[boundaries[i].RelationID] {
			nodeIDs := boundaryRingNodes[wayID]
			if len(nodeIDs) == 0 {
				continue
			}
			ring := BoundaryRing{Coords: make([]geo.GeoCoord, 0, len(nodeIDs))}
			for _, id := range nodeIDs {
				if c, ok := nodeCoord[id]; ok {
					ring.Coords = append(ring.Coords, c)
				}
			}
			if len(ring.Coords) >= 3 {
				boundaries[i].Rings = append(boundaries[i].Rings, ring)
			}
		}
	}

	return &Result{
		Ways:         ways,
		NodeCoord:    nodeCoord,
		Boundaries:   boundaries,
		Places:       places,
		Addresses:    addresses,
		POIs:         pois,
		Restrictions: restrictions,
	}, nil
}

// scanRelations extracts boundary skeletons (name, admin_level, and the
// ordered list of outer-role member way IDs still needing geometry) and
// turn-restriction relations (from/via/to members, spec §4.6).
func scanRelations(ctx context.Context, rs io.ReadSeeker, log *zap.Logger) ([]Boundary, map[osm.RelationID][]osm.WayID, []RawRestriction, error) {
	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipWays = true
	defer scanner.Close()

	var boundaries []Boundary
	memberWays := make(map[osm.RelationID][]osm.WayID)
	var restrictions []RawRestriction

	for scanner.Scan() {
		rel, ok := scanner.Object().(*osm.Relation)
		if !ok {
			continue
		}

		relType := rel.Tags.Find("type")
		switch {
		case relType == "boundary" || rel.Tags.Find("boundary") == "administrative":
			name := rel.Tags.Find("name")
			if name == "" {
				log.Warn("boundary relation has no name", zap.Int64("relation_id", int64(rel.ID)))
				continue
			}
			level, err := strconv.Atoi(rel.Tags.Find("admin_level"))
			if err != nil {
				log.Info("boundary relation has no admin_level", zap.Int64("relation_id", int64(rel.ID)))
				continue
			}

			var wayIDs []osm.WayID
			for _, m := range rel.Members {
				if m.Type != osm.TypeWay {
					continue
				}
				if m.Role != "outer" && m.Role != "" {
					continue
				}
				wayIDs = append(wayIDs, osm.WayID(m.Ref))
			}
			if len(wayIDs) == 0 {
				continue
			}

			boundaries = append(boundaries, Boundary{RelationID: rel.ID, Name: name, AdminLevel: level})
			memberWays[rel.ID] = wayIDs

		case relType == "restriction":
			r, ok := parseRestriction(rel, log)
			if ok {
				restrictions = append(restrictions, r)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	return boundaries, memberWays, restrictions, nil
}

// parseRestriction extracts one `type=restriction` relation's from/via/to
// members, skipping (with a log line, never an error) anything this
// shape can't represent: an untagged or unrecognized `restriction=*`
// value, a `via` that isn't a single node (multi-way via restrictions
// aren't modeled), or a missing from/to way.
func parseRestriction(rel *osm.Relation, log *zap.Logger) (RawRestriction, bool) {
	kind := rel.Tags.Find("restriction")
	only := strings.HasPrefix(kind, "only_")
	forbid := strings.HasPrefix(kind, "no_")
	if !only && !forbid {
		log.Info("restriction relation has no recognized restriction= value",
			zap.Int64("relation_id", int64(rel.ID)), zap.String("restriction", kind))
		return RawRestriction{}, false
	}

	var fromWay, toWay osm.WayID
	var via osm.NodeID
	var haveFrom, haveTo, haveVia bool
	for _, m := range rel.Members {
		switch {
		case m.Role == "from" && m.Type == osm.TypeWay:
			fromWay, haveFrom = osm.WayID(m.Ref), true
		case m.Role == "to" && m.Type == osm.TypeWay:
			toWay, haveTo = osm.WayID(m.Ref), true
		case m.Role == "via" && m.Type == osm.TypeNode:
			via, haveVia = osm.NodeID(m.Ref), true
		}
	}
	if !haveFrom || !haveTo || !haveVia {
		log.Warn("restriction relation missing a from/to way or node via member",
			zap.Int64("relation_id", int64(rel.ID)))
		return RawRestriction{}, false
	}

	return RawRestriction{RelationID: rel.ID, FromWay: fromWay, ToWay: toWay, Via: via, Only: only}, true
}

// routableHighways mirrors every highway class any profile can use;
// maintained here as the universal filter applied before per-vehicle
// CanUse checks narrow further, avoiding a full-tag scan of ways no
// profile will ever touch.
var routableHighways = map[string]bool{
	"motorway": true, "motorway_link": true, "trunk": true, "trunk_link": true,
	"primary": true, "primary_link": true, "secondary": true, "secondary_link": true,
	"tertiary": true, "tertiary_link": true, "unclassified": true,
	"residential": true, "living_street": true, "service": true,
	"track": true, "path": true, "footway": true, "cycleway": true,
	"pedestrian": true, "steps": true,
}

func scanWays(ctx context.Context, rs io.ReadSeeker, boundaryWayIDs map[osm.RelationID][]osm.WayID, log *zap.Logger) ([]RawWay, map[osm.WayID][]osm.NodeID, map[osm.NodeID]struct{}, error) {
	needed := make(map[osm.WayID]bool)
	for _, ids := range boundaryWayIDs {
		for _, id := range ids {
			needed[id] = true
		}
	}

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	defer scanner.Close()

	var ways []RawWay
	boundaryRingNodes := make(map[osm.WayID][]osm.NodeID)
	referenced := make(map[osm.NodeID]struct{})

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		hw := w.Tags.Find("highway")
		isRoutable := routableHighways[hw] && len(w.Nodes) >= 2
		isBoundaryMember := needed[w.ID]
		if !isRoutable && !isBoundaryMember {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}

		if isRoutable {
			maxSpeed := 0.0
			if ms := w.Tags.Find("maxspeed"); ms != "" {
				if v, err := strconv.ParseFloat(ms, 64); err == nil {
					maxSpeed = v
				}
			}
			ways = append(ways, RawWay{
				ID:       w.ID,
				NodeIDs:  nodeIDs,
				Highway:  hw,
				Access:   w.Tags.Find("access"),
				MaxSpeed: maxSpeed,
				Oneway:   w.Tags.Find("oneway"),
				Junction: w.Tags.Find("junction"),
				Name:     w.Tags.Find("name"),
			})
		}
		if isBoundaryMember {
			boundaryRingNodes[w.ID] = nodeIDs
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	return ways, boundaryRingNodes, referenced, nil
}

func scanNodes(ctx context.Context, rs io.ReadSeeker, referenced map[osm.NodeID]struct{}, log *zap.Logger) (map[osm.NodeID]geo.GeoCoord, []PlaceNode, []AddressPoint, []POIPoint, error) {
	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	defer scanner.Close()

	coords := make(map[osm.NodeID]geo.GeoCoord, len(referenced))
	var places []PlaceNode
	var addresses []AddressPoint
	var pois []POIPoint

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		c := geo.GeoCoord{Lat: n.Lat, Lon: n.Lon}

		if _, needed := referenced[n.ID]; needed {
			coords[n.ID] = c
		}

		name := n.Tags.Find("name")
		if place := n.Tags.Find("place"); placeRanks[place] && name != "" {
			places = append(places, PlaceNode{NodeID: n.ID, Name: name, Coord: c, Rank: place})
			continue
		}

		housenumber := n.Tags.Find("addr:housenumber")
		street := n.Tags.Find("addr:street")
		if housenumber != "" && street != "" {
			addresses = append(addresses, AddressPoint{Coord: c, Street: street, HouseNumber: housenumber, Offset: uint64(n.ID)})
			continue
		}

		if name != "" {
			pois = append(pois, POIPoint{Coord: c, Name: name, Offset: uint64(n.ID)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, nil, err
	}
	log.Info("pass 3 complete",
		zap.Int("coords", len(coords)), zap.Int("places", len(places)),
		zap.Int("addresses", len(addresses)), zap.Int("pois", len(pois)))
	return coords, places, addresses, pois, nil
}
