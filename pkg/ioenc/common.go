package ioenc

import "math"

// coordScale is the fixed-point scale used by WriteCoord/ReadCoord: 1e7
// gives ~1.1cm precision at the equator, matching geo.Point's
// quantization grid.
const coordScale = 1e7

func float64ToBits(f float64) uint64 { return math.Float64bits(f) }
func bitsToFloat64(u uint64) float64 { return math.Float64frombits(u) }
