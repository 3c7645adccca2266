// Package profile implements the closed set of vehicle cost profiles used
// by the route-graph builder and router (spec §4.5-4.7): a data table keyed
// by a small enum, not virtual dispatch, matching the Design Notes'
// decision that vehicle profiles are "a closed enum plus a data table".
package profile

import "math"

// Vehicle enumerates the supported cost profiles. The set is closed:
// adding a new vehicle means adding a table row, not a new type.
type Vehicle uint8

const (
	Foot Vehicle = iota
	Bicycle
	Car
)

func (v Vehicle) String() string {
	switch v {
	case Foot:
		return "foot"
	case Bicycle:
		return "bicycle"
	case Car:
		return "car"
	default:
		return "unknown"
	}
}

// Parse maps a profile name (as used in ImportParameter.VehicleProfiles and
// the routing API's `vehicle` query field) to a Vehicle. ok is false for an
// unrecognised name.
func Parse(name string) (v Vehicle, ok bool) {
	switch name {
	case "foot":
		return Foot, true
	case "bicycle":
		return Bicycle, true
	case "car":
		return Car, true
	default:
		return 0, false
	}
}

// gradeCurve scales edge cost by an uphill/downhill grade, 1 at flat grade.
// Bicycle and foot profiles pay a penalty uphill and a (smaller) discount
// downhill; car profiles are unaffected.
type gradeCurve func(gradePercent float64) float64

// row holds the per-vehicle constants that drive EdgeCost/EstimateCost/
// CanUse: a carHighways/directionFlags-style table generalised from
// "car-only" to one row per vehicle.
type row struct {
	maxSpeedKPH   float64 // used both for real edge cost and the A* heuristic
	baseSpeedKPH  float64 // speed assumed on an unrestricted, flat edge
	grade         gradeCurve
	usableHighway map[string]bool // OSM highway=* values this vehicle may use
	usableAccess  map[string]bool // OSM access=* values (none/overridden elsewhere) that forbid use
}

var flatGrade gradeCurve = func(float64) float64 { return 1.0 }

var footGrade gradeCurve = func(g float64) float64 {
	if g > 0 {
		return 1.0 + g*0.02
	}
	return 1.0 + g*0.01
}

var bicycleGrade gradeCurve = func(g float64) float64 {
	if g > 0 {
		return 1.0 + g*0.08
	}
	return math.Max(0.6, 1.0+g*0.03)
}

var tables = map[Vehicle]row{
	Foot: {
		maxSpeedKPH:  5,
		baseSpeedKPH: 5,
		grade:        footGrade,
		usableHighway: map[string]bool{
			"footway": true, "path": true, "pedestrian": true, "steps": true,
			"living_street": true, "residential": true, "service": true,
			"track": true, "unclassified": true, "tertiary": true,
			"secondary": true, "primary": true,
		},
	},
	Bicycle: {
		maxSpeedKPH:  25,
		baseSpeedKPH: 18,
		grade:        bicycleGrade,
		usableHighway: map[string]bool{
			"cycleway": true, "living_street": true, "residential": true,
			"service": true, "track": true, "unclassified": true,
			"tertiary": true, "secondary": true, "primary": true,
			"path": true,
		},
	},
	Car: {
		maxSpeedKPH:  130,
		baseSpeedKPH: 50,
		grade:        flatGrade,
		usableHighway: map[string]bool{
			"motorway": true, "motorway_link": true, "trunk": true, "trunk_link": true,
			"primary": true, "primary_link": true, "secondary": true, "secondary_link": true,
			"tertiary": true, "tertiary_link": true, "unclassified": true,
			"residential": true, "living_street": true, "service": true,
		},
	},
}

var forbiddenAccess = map[string]bool{
	"no": true, "private": true,
}

// CanUse reports whether this vehicle may traverse a way tagged with the
// given highway and access values (spec §4.5 edge case: access tags
// override the highway-class default).
func (v Vehicle) CanUse(highway, access string) bool {
	if access != "" && forbiddenAccess[access] {
		return false
	}
	t, ok := tables[v]
	if !ok {
		return false
	}
	return t.usableHighway[highway]
}

// EdgeCost returns the traversal cost of an edge of the given length in
// meters, maxspeed in km/h, and grade percent (positive uphill). A
// maxspeed below the vehicle's table maximum sets the speed; 0, or a value
// at or above that maximum, costs the edge at the vehicle's base speed.
// There is no per-highway-class default speed.
func (v Vehicle) EdgeCost(lengthMeters, maxSpeedKPH, gradePercent float64) float64 {
	t := tables[v]
	speed := t.baseSpeedKPH
	if maxSpeedKPH > 0 && maxSpeedKPH < t.maxSpeedKPH {
		speed = maxSpeedKPH
	}
	if speed <= 0 {
		speed = t.baseSpeedKPH
	}
	seconds := (lengthMeters / 1000.0) / speed * 3600.0
	return seconds * t.grade(gradePercent)
}

// EstimateCost is the A* heuristic: a straight-line lower bound on cost,
// computed from this vehicle's table maximum speed so it never
// overestimates the true remaining cost (spec §4.9 admissibility
// requirement).
func (v Vehicle) EstimateCost(straightLineMeters float64) float64 {
	t := tables[v]
	if t.maxSpeedKPH <= 0 {
		return 0
	}
	return (straightLineMeters / 1000.0) / t.maxSpeedKPH * 3600.0
}

// MaxSpeedKPH returns the profile's table maximum speed, used both by
// EstimateCost and by route-graph object-variant interning to classify a
// way's effective speed bucket.
func (v Vehicle) MaxSpeedKPH() float64 {
	return tables[v].maxSpeedKPH
}
