// Package geo holds the pure geometry used by editing and progress tracking.
//
// All functions work on planar points (orb.Point) in a single metric space.
// Geographic coordinates are mapped into that space once per route through a
// Projection, so every distance of a route is measured with the same metric.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Hit is the closest point of a polyline to a query point.
// Index is the sub-segment [Index, Index+1] the point falls on, or -1 when
// the polyline is empty.
type Hit struct {
	Point    orb.Point
	Distance float64
	Index    int
}

// Found reports whether the hit refers to an actual polyline vertex pair.
func (h Hit) Found() bool { return h.Index >= 0 }

// ProjectPointToSegment returns the orthogonal projection of p onto [a,b],
// clamped to the segment, and the distance from p to that projection.
// A zero-length segment projects everything onto a.
func ProjectPointToSegment(p, a, b orb.Point) (orb.Point, float64) {
	abx, aby := b[0]-a[0], b[1]-a[1]
	ab2 := abx*abx + aby*aby
	if ab2 == 0 {
		return a, planar.Distance(p, a)
	}

	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / ab2
	t = math.Max(0, math.Min(1, t))

	proj := orb.Point{a[0] + abx*t, a[1] + aby*t}
	return proj, planar.Distance(p, proj)
}

// NearestOnPolyline scans every consecutive vertex pair and returns the
// globally closest projection. On exact ties the lowest index wins.
//
// An empty polyline yields Index -1 and an infinite distance. A single vertex
// is treated as a zero-length segment at index 0.
func NearestOnPolyline(line orb.LineString, p orb.Point) Hit {
	switch len(line) {
	case 0:
		return Hit{Point: p, Distance: math.Inf(1), Index: -1}
	case 1:
		return Hit{Point: line[0], Distance: planar.Distance(p, line[0]), Index: 0}
	}

	best := Hit{Distance: math.Inf(1), Index: -1}
	for i := 0; i < len(line)-1; i++ {
		proj, d := ProjectPointToSegment(p, line[i], line[i+1])
		if d < best.Distance {
			best = Hit{Point: proj, Distance: d, Index: i}
		}
	}
	return best
}

// DistanceToPolyline is the perpendicular distance from p to the polyline.
func DistanceToPolyline(line orb.LineString, p orb.Point) float64 {
	return NearestOnPolyline(line, p).Distance
}

// PolylineLength sums consecutive vertex distances; 0 for fewer than 2 points.
func PolylineLength(line orb.LineString) float64 {
	if len(line) < 2 {
		return 0
	}
	return planar.Length(line)
}

// RemainingDistanceOnPolyline measures from the projection of p to the end of
// the polyline: the rest of the sub-segment it falls on plus every later one.
func RemainingDistanceOnPolyline(p orb.Point, line orb.LineString) float64 {
	if len(line) < 2 {
		return 0
	}

	hit := NearestOnPolyline(line, p)
	remain := planar.Distance(hit.Point, line[hit.Index+1])
	if hit.Index+1 < len(line)-1 {
		remain += PolylineLength(line[hit.Index+1:])
	}
	return remain
}
