// Package mtreedist provides reference DistanceFunc implementations for
// github.com/tormol/mtree, starting with Euclidean distance over 2-D
// points. It's adapted from github.com/tormol/AIS/geo's Point type,
// trimmed down to just the distance calculation a metric-space index
// needs (the rectangle/MBR machinery that file also carried was
// specific to bounding-box spatial queries, not to M-tree indexing).
package mtreedist

import "math"

// Point is a location in the Euclidean plane.
type Point struct {
	X, Y float64
}

// Euclidean returns the straight-line distance between a and b. It
// satisfies mtree.DistanceFunc[Point]: non-negative, symmetric, zero for
// a==b, and obeys the triangle inequality by construction.
func Euclidean(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
