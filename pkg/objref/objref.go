// Package objref defines the tagged file reference used throughout the
// location index and route-node graph to point at the original node/way/area
// record a derived object came from, per spec §3.
package objref

// Kind tags which of the three OSM object kinds a reference points at.
type Kind uint8

const (
	KindNode Kind = 0
	KindWay  Kind = 1
	KindArea Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindArea:
		return "area"
	default:
		return "unknown"
	}
}

// Priority orders reference kinds from "weakest" to "strongest" for the
// add_region duplicate-skip rule (spec §4.3): node < way < area < relation.
// Administrative boundaries are modeled as areas built from relations, so
// KindArea stands in for "relation" here: the builder never emits a
// reference kind finer than area/way/node.
func (k Kind) Priority() int {
	switch k {
	case KindNode:
		return 0
	case KindWay:
		return 1
	case KindArea:
		return 2
	default:
		return -1
	}
}

// Ref is a tagged reference to a node, way, or area by file offset.
type Ref struct {
	Kind   Kind
	Offset uint64
}

// Weaker reports whether r's kind is strictly weaker than o's, per the
// add_region duplicate-skip ordering (spec §4.3).
func (r Ref) Weaker(o Ref) bool {
	return r.Kind.Priority() < o.Kind.Priority()
}
