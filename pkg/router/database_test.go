package router

import "testing"

func TestNewDatabaseSetTracksSharedNodeIDs(t *testing.T) {
	ds := NewDatabaseSet(map[string]Graph{
		"west": NewGraph(linearGraph(2)),
		"east": NewGraph(linearGraph(2)),
	}, map[string][]uint64{
		"west": {1, 2},
		"east": {2, 3}, // node 2 sits on the border, shared by both databases
	})

	if _, ok := ds.twins[2]; !ok {
		t.Fatal("node 2 is owned by two databases and should have a twin entry")
	}
	if _, ok := ds.twins[1]; ok {
		t.Fatal("node 1 is single-database and should have no twin entry")
	}

	if g, ok := ds.Graph("west"); !ok || g == nil {
		t.Fatal("Graph(\"west\") should resolve the registered graph")
	}
	if _, ok := ds.Graph("missing"); ok {
		t.Fatal("Graph(\"missing\") should report not-found")
	}
}

func TestTwinsOfReturnsNilForUnsharedOrUnknownNode(t *testing.T) {
	ds := NewDatabaseSet(nil, map[string][]uint64{"west": {1}})
	if twins := ds.TwinsOf(1); twins != nil {
		t.Fatalf("TwinsOf(1) = %v, want nil (owned by exactly one database)", twins)
	}
	if twins := ds.TwinsOf(999); twins != nil {
		t.Fatalf("TwinsOf(999) = %v, want nil (unknown node)", twins)
	}
}
