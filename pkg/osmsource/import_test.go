package osmsource

import (
	"testing"

	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

func restrictionRelation(restriction string, members osm.Members) *osm.Relation {
	return &osm.Relation{
		ID:      1,
		Tags:    osm.Tags{{Key: "type", Value: "restriction"}, {Key: "restriction", Value: restriction}},
		Members: members,
	}
}

func TestParseRestrictionNoLeftTurn(t *testing.T) {
	rel := restrictionRelation("no_left_turn", osm.Members{
		{Type: osm.TypeWay, Ref: 10, Role: "from"},
		{Type: osm.TypeWay, Ref: 20, Role: "to"},
		{Type: osm.TypeNode, Ref: 99, Role: "via"},
	})

	r, ok := parseRestriction(rel, zap.NewNop())
	if !ok {
		t.Fatalf("parseRestriction() ok = false, want true")
	}
	if r.Only {
		t.Fatalf("Only = true, want false for a no_* restriction")
	}
	if r.FromWay != 10 || r.ToWay != 20 || r.Via != 99 {
		t.Fatalf("r = %+v, want FromWay=10 ToWay=20 Via=99", r)
	}
}

func TestParseRestrictionOnlyStraightOn(t *testing.T) {
	rel := restrictionRelation("only_straight_on", osm.Members{
		{Type: osm.TypeWay, Ref: 1, Role: "from"},
		{Type: osm.TypeWay, Ref: 2, Role: "to"},
		{Type: osm.TypeNode, Ref: 5, Role: "via"},
	})

	r, ok := parseRestriction(rel, zap.NewNop())
	if !ok {
		t.Fatalf("parseRestriction() ok = false, want true")
	}
	if !r.Only {
		t.Fatalf("Only = false, want true for an only_* restriction")
	}
}

func TestParseRestrictionSkipsUnrecognizedKind(t *testing.T) {
	rel := restrictionRelation("no_entry_for_whatever_reason", osm.Members{
		{Type: osm.TypeWay, Ref: 1, Role: "from"},
		{Type: osm.TypeWay, Ref: 2, Role: "to"},
		{Type: osm.TypeNode, Ref: 5, Role: "via"},
	})
	rel.Tags = osm.Tags{{Key: "type", Value: "restriction"}, {Key: "restriction", Value: "weird_value"}}

	if _, ok := parseRestriction(rel, zap.NewNop()); ok {
		t.Fatalf("parseRestriction() ok = true, want false for an unrecognized restriction= value")
	}
}

func TestParseRestrictionSkipsMissingVia(t *testing.T) {
	rel := restrictionRelation("no_left_turn", osm.Members{
		{Type: osm.TypeWay, Ref: 10, Role: "from"},
		{Type: osm.TypeWay, Ref: 20, Role: "to"},
	})

	if _, ok := parseRestriction(rel, zap.NewNop()); ok {
		t.Fatalf("parseRestriction() ok = true, want false with no via member")
	}
}

func TestParseRestrictionSkipsWayVia(t *testing.T) {
	// A via member that is a way (complex multi-way restriction) isn't
	// modeled by this Restriction shape and must be skipped, not panic
	// or silently mistyped.
	rel := restrictionRelation("no_left_turn", osm.Members{
		{Type: osm.TypeWay, Ref: 10, Role: "from"},
		{Type: osm.TypeWay, Ref: 20, Role: "to"},
		{Type: osm.TypeWay, Ref: 30, Role: "via"},
	})

	if _, ok := parseRestriction(rel, zap.NewNop()); ok {
		t.Fatalf("parseRestriction() ok = true, want false with a way-typed via member")
	}
}
