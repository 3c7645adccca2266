// Package routegraph builds the route-node graph (spec §4.5-4.7,
// components F/G): intersection discovery by two sweeps over routable
// ways/areas, per-junction path derivation, turn-restriction resolution,
// object-variant interning, and the tiled on-disk layout (§6.3) plus the
// legacy back-patched layout kept alongside it (§9, legacy.go).
//
// Follows a CSR-building shape (counting-sort-by-source discipline)
// generalized from "single directed edge list" to "per-junction path
// list with access/restriction flags and turn excludes". GenRouteDat.cpp
// is not present in original_source per _INDEX.md's listing, so the
// sweep/derive algorithm below follows spec §4.5-§4.7 directly.
package routegraph

import "github.com/mapstack/osmindex/pkg/geo"

// ObjectVariant is the interned (type, max_speed, grade) tuple every path
// references by 16-bit index (spec §4.6, §6.4).
type ObjectVariant struct {
	HighwayType string
	MaxSpeedKPH float64
	GradePct    float64
}

// Exclude is one resolved turn restriction: from path source, entering
// this node, the path at TargetIndex in this node's Paths may not be
// taken (spec §4.6 "Turn restrictions").
type Exclude struct {
	Source      uint64 // object file offset of the incoming way
	TargetIndex int    // index into the owning RouteNode's Paths
}

// Path is one outgoing edge of a RouteNode.
type Path struct {
	TargetID     uint64 // target route-node id (tiled layout) or 0 until resolved (legacy)
	TargetCoord  geo.GeoCoord
	TargetObject uint64 // object file offset of the way/area this path continues onto; used to resolve turn excludes
	Distance     float64 // meters
	Variant      uint16  // index into the object-variant table
	Usable       bool    // OR of forward/backward access across all vehicles
	Restricted   bool    // destination-only: enter but never pass through
	Shape        []geo.GeoCoord // intermediate nodes skipped between source and TargetCoord, source/target excluded
}

// RouteNode is one junction: a shared node among ≥2 routable
// ways/areas (or a manually flagged network-shareable node).
type RouteNode struct {
	ID       uint64
	Coord    geo.GeoCoord
	Objects  []uint64 // ObjectFileRef offsets of the incident ways/areas
	Paths    []Path
	Excludes []Exclude
}

// junctionState is the Sweep 1 state machine per candidate id (spec
// §4.5): unseen -> usedOnce -> usedMany. Only ids reaching usedMany
// become route-nodes.
type junctionState uint8

const (
	unseen junctionState = iota
	usedOnce
	usedMany
)
