package router

import (
	"errors"
	"math"
	"sort"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// ErrPointTooFar is returned when the query point is too far from any
// routable segment.
var ErrPointTooFar = errors.New("router: point too far from road")

const maxSnapDistMeters = 500.0
const gridCellSize = 0.01 // degrees, ~1.1km at the equator

// segment is one path's polyline, flattened for snapping: from the
// owning route-node, through its Shape points, to TargetCoord.
type segment struct {
	from, to uint64
	fromObj  uint64 // TargetObject of this path, for excludes bookkeeping
	coords   []geo.GeoCoord
	distance float64
	variant  uint16 // index into the object-variant table, for seed costing
}

type cellEntry struct {
	key uint64
	seg int
}

// Snapper resolves an arbitrary lat/lon to the nearest route-node path,
// using a flat sorted-grid spatial index (flat sorted slice + binary-
// search cell range), adapted from "snap onto one of a raw edge list's
// edges" to "snap onto one of the route-node graph's derived paths,"
// since no separate raw-edge database survives into this corpus's route
// graph (see routegraph's osmsource/object-file simplification notes).
type Snapper struct {
	segments []segment
	entries  []cellEntry
}

// NewSnapper indexes every usable path of every node in g.
func NewSnapper(nodes map[uint64]*routegraph.RouteNode) *Snapper {
	s := &Snapper{}
	for id, n := range nodes {
		for _, p := range n.Paths {
			if !p.Usable {
				continue
			}
			coords := append([]geo.GeoCoord{n.Coord}, p.Shape...)
			coords = append(coords, p.TargetCoord)
			s.segments = append(s.segments, segment{from: id, to: p.TargetID, fromObj: p.TargetObject, coords: coords, distance: p.Distance, variant: p.Variant})
		}
	}

	for segIdx, seg := range s.segments {
		cellSet := make(map[uint64]bool)
		for i := 0; i+1 < len(seg.coords); i++ {
			a, b := seg.coords[i], seg.coords[i+1]
			latLo, lonLo := gridCell(math.Min(a.Lat, b.Lat), math.Min(a.Lon, b.Lon))
			latHi, lonHi := gridCell(math.Max(a.Lat, b.Lat), math.Max(a.Lon, b.Lon))
			for la := latLo; la <= latHi; la++ {
				for lo := lonLo; lo <= lonHi; lo++ {
					cellSet[cellKey(la, lo)] = true
				}
			}
		}
		for key := range cellSet {
			s.entries = append(s.entries, cellEntry{key: key, seg: segIdx})
		}
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].key < s.entries[j].key })

	return s
}

func gridCell(lat, lon float64) (latIdx, lonIdx int32) {
	return int32(math.Floor(lat / gridCellSize)), int32(math.Floor(lon / gridCellSize))
}

func cellKey(latIdx, lonIdx int32) uint64 {
	return uint64(uint32(latIdx))<<32 | uint64(uint32(lonIdx))
}

func (s *Snapper) cellRange(key uint64) []cellEntry {
	lo := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].key >= key })
	if lo >= len(s.entries) || s.entries[lo].key != key {
		return nil
	}
	hi := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].key > key })
	return s.entries[lo:hi]
}

// SnapResult is a point resolved onto a path between two route-nodes.
type SnapResult struct {
	From, To        uint64
	Ratio           float64 // 0 = at From, 1 = at To
	Dist            float64 // meters, query point to snapped point
	Coord           geo.GeoCoord
	segmentDistance float64 // total length of the matched path, for seed costing
	segmentVariant  uint16  // matched path's object-variant index, for seed costing
}

// Snap finds the nearest indexed path to (lat, lon).
func (s *Snapper) Snap(lat, lon float64) (SnapResult, error) {
	centerLat, centerLon := gridCell(lat, lon)
	bestDist := math.Inf(1)
	var best SnapResult
	found := false

	for dLat := int32(-1); dLat <= 1; dLat++ {
		for dLon := int32(-1); dLon <= 1; dLon++ {
			key := cellKey(centerLat+dLat, centerLon+dLon)
			for _, ce := range s.cellRange(key) {
				seg := s.segments[ce.seg]
				for i := 0; i+1 < len(seg.coords); i++ {
					a, b := seg.coords[i], seg.coords[i+1]
					dist, ratio := geo.PointToSegmentDist(lat, lon, a.Lat, a.Lon, b.Lat, b.Lon)
					if dist < bestDist {
						bestDist = dist
						found = true
						best = SnapResult{
							From: seg.from, To: seg.to, Ratio: ratio, Dist: dist,
							Coord:           geo.GeoCoord{Lat: a.Lat + ratio*(b.Lat-a.Lat), Lon: a.Lon + ratio*(b.Lon-a.Lon)},
							segmentDistance: seg.distance,
							segmentVariant:  seg.variant,
						}
					}
				}
			}
		}
	}

	if !found || bestDist > maxSnapDistMeters {
		return SnapResult{}, ErrPointTooFar
	}
	return best, nil
}
