package router

import geojson "github.com/paulmach/go.geojson"

// ToGeoJSON renders a Description as a single-feature LineString
// FeatureCollection (SPEC_FULL.md §6 "new": an additional transform
// alongside the canonical Description/Way/[]Point return types, not a
// replacement for them).
func ToGeoJSON(desc *Description) *geojson.FeatureCollection {
	coords := make([][]float64, len(desc.Points))
	for i, p := range desc.Points {
		coords[i] = []float64{p.Lon, p.Lat}
	}

	feature := geojson.NewLineStringFeature(coords)
	feature.SetProperty("total_distance_meters", desc.TotalDistance)
	feature.SetProperty("total_cost", desc.TotalCost)

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(feature)
	return fc
}
