package routecache

import (
	"context"
	"testing"

	"github.com/mapstack/osmindex/pkg/routegraph"
)

func TestLRUMissOnEmptyCache(t *testing.T) {
	c := NewLRU(2)
	_, ok, err := c.GetTile(context.Background(), "db", routegraph.TileKey{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("GetTile() error = %v", err)
	}
	if ok {
		t.Fatal("GetTile() on an empty cache should miss")
	}
}

func TestLRUSetThenGetHits(t *testing.T) {
	c := NewLRU(2)
	key := routegraph.TileKey{X: 3, Y: 4}
	if err := c.SetTile(context.Background(), "db", key, []byte("payload")); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	data, ok, err := c.GetTile(context.Background(), "db", key)
	if err != nil || !ok {
		t.Fatalf("GetTile() = %v, %v, %v, want a hit", data, ok, err)
	}
	if string(data) != "payload" {
		t.Fatalf("data = %q, want %q", data, "payload")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	ctx := context.Background()
	k1 := routegraph.TileKey{X: 1, Y: 1}
	k2 := routegraph.TileKey{X: 2, Y: 2}
	k3 := routegraph.TileKey{X: 3, Y: 3}

	c.SetTile(ctx, "db", k1, []byte("a"))
	c.SetTile(ctx, "db", k2, []byte("b"))
	// Touch k1 so k2 becomes the least recently used.
	c.GetTile(ctx, "db", k1)
	c.SetTile(ctx, "db", k3, []byte("c"))

	if _, ok, _ := c.GetTile(ctx, "db", k2); ok {
		t.Fatal("k2 should have been evicted as least recently used")
	}
	if _, ok, _ := c.GetTile(ctx, "db", k1); !ok {
		t.Fatal("k1 was touched and should still be cached")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (capacity)", c.Len())
	}
}

func TestLRUKeysAreScopedPerDatabase(t *testing.T) {
	c := NewLRU(4)
	ctx := context.Background()
	key := routegraph.TileKey{X: 1, Y: 1}

	c.SetTile(ctx, "west", key, []byte("west-data"))
	c.SetTile(ctx, "east", key, []byte("east-data"))

	west, _, _ := c.GetTile(ctx, "west", key)
	east, _, _ := c.GetTile(ctx, "east", key)
	if string(west) != "west-data" || string(east) != "east-data" {
		t.Fatalf("cross-database collision: west=%q east=%q", west, east)
	}
}

func TestLRUZeroCapacityAlwaysMisses(t *testing.T) {
	c := NewLRU(0)
	ctx := context.Background()
	key := routegraph.TileKey{X: 1, Y: 1}

	if err := c.SetTile(ctx, "db", key, []byte("x")); err != nil {
		t.Fatalf("SetTile() error = %v", err)
	}
	if _, ok, _ := c.GetTile(ctx, "db", key); ok {
		t.Fatal("a zero-capacity cache should never report a hit")
	}
}
