package locindex

import (
	"path/filepath"
	"testing"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/region"
)

func buildSampleIndex() *Index {
	root := region.NewRoot()
	country := &region.Region{Name: "Country", Reference: region.RefArea}
	country.Rings = []region.Ring{{Coords: []geo.GeoCoord{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0},
	}}}
	country.CalculateBounds()
	region.AddRegion(root, country)

	region.AttachAddress(root, geo.GeoCoord{Lat: 5, Lon: 5}, "Main St", region.Address{HouseNumber: "1", Offset: 42})
	region.AttachAddress(root, geo.GeoCoord{Lat: 5, Lon: 5}, "Main St", region.Address{HouseNumber: "2", Offset: 43})
	region.AttachPOI(root, geo.GeoCoord{Lat: 5, Lon: 5}, region.POI{Name: "Cafe", Offset: 99})

	return &Index{Root: root, RegionTokens: []string{"st"}, LocationTokens: []string{"st"}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "location.idx")

	idx := buildSampleIndex()
	if err := Write(idx, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	defer loaded.Close()

	if len(loaded.Root.Children) != 1 || loaded.Root.Children[0].Name != "Country" {
		t.Fatalf("expected one Country child, got %+v", loaded.Root.Children)
	}

	data, err := loaded.Data(loaded.Root.Children[0])
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if len(data.POIs) != 1 || data.POIs[0].Name != "Cafe" {
		t.Fatalf("expected one Cafe POI, got %+v", data.POIs)
	}
	if len(data.Streets) != 1 || data.Streets[0].Name != "Main St" {
		t.Fatalf("expected one Main St street, got %+v", data.Streets)
	}
	if len(data.Streets[0].Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %+v", data.Streets[0].Addresses)
	}
	if data.Streets[0].Addresses[0] != "1" || data.Streets[0].Addresses[1] != "2" {
		t.Errorf("unexpected house number order: %+v", data.Streets[0].Addresses)
	}

	if len(loaded.RegionTokens) != 1 || loaded.RegionTokens[0] != "st" {
		t.Errorf("expected region ignore tokens to round-trip, got %+v", loaded.RegionTokens)
	}
}
