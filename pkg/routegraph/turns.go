package routegraph

import (
	"github.com/mapstack/osmindex/pkg/osmsource"
	"github.com/paulmach/osm"
)

// RestrictionKind distinguishes "only this is allowed" (Allow) from "this
// specific turn is forbidden" (Forbid) restrictions, spec §4.6.
type RestrictionKind uint8

const (
	Forbid RestrictionKind = iota
	Allow
)

// Restriction is one turn-restriction relation, already resolved from OSM
// ids to the internal identifiers DerivePaths produced: FromObject/
// ToObject are way object offsets, Via is the junction node id.
type Restriction struct {
	Kind       RestrictionKind
	FromObject uint64
	ToObject   uint64
	Via        osm.NodeID
}

// RestrictionsFromRaw converts the raw OSM-id restrictions osmsource
// extracts into the object-offset-keyed form ResolveExcludes consumes.
// FromObject/ToObject use the same ObjectOffset convention as
// WaysFromResult (uint64(way id)); a restriction whose from/to way never
// made it into the routable way set (filtered out by CanUse, or outside
// this extract) is silently dropped by ResolveExcludes' bySource lookup
// finding no matching node, so no filtering is needed here.
func RestrictionsFromRaw(raw []osmsource.RawRestriction) []Restriction {
	out := make([]Restriction, 0, len(raw))
	for _, r := range raw {
		kind := Forbid
		if r.Only {
			kind = Allow
		}
		out = append(out, Restriction{
			Kind:       kind,
			FromObject: uint64(r.FromWay),
			ToObject:   uint64(r.ToWay),
			Via:        r.Via,
		})
	}
	return out
}

// ResolveExcludes implements spec §4.6's turn semantics: for each
// junction node carrying restrictions, classify every (source, target
// path) pair by whether it may be taken, then emit the minimal set of
// Excludes that encodes that decision -- if ANY Allow restriction exists
// for a given source, every path except the allowed targets is excluded;
// otherwise only the explicitly Forbidden targets are excluded.
func ResolveExcludes(nodes map[osm.NodeID]*RouteNode, restrictions []Restriction) {
	bySource := make(map[osm.NodeID]map[uint64][]Restriction)
	for _, r := range restrictions {
		if bySource[r.Via] == nil {
			bySource[r.Via] = make(map[uint64][]Restriction)
		}
		bySource[r.Via][r.FromObject] = append(bySource[r.Via][r.FromObject], r)
	}

	for nodeID, bySourceObj := range bySource {
		node, ok := nodes[nodeID]
		if !ok {
			continue
		}
		for source, rs := range bySourceObj {
			allowed := make(map[uint64]bool)
			forbidden := make(map[uint64]bool)
			hasAllow := false
			for _, r := range rs {
				if r.Kind == Allow {
					hasAllow = true
					allowed[r.ToObject] = true
				} else {
					forbidden[r.ToObject] = true
				}
			}

			for i, p := range node.Paths {
				target := p.TargetObject
				var excluded bool
				if hasAllow {
					excluded = !allowed[target]
				} else {
					excluded = forbidden[target]
				}
				if excluded {
					node.Excludes = append(node.Excludes, Exclude{Source: source, TargetIndex: i})
				}
			}
		}
	}
}
