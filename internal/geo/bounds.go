package geo

import (
	"math"
	"route-navigation-service/internal/domain"

	"github.com/paulmach/orb"
)

const (
	fitPadding = 1.15
	minSpanDeg = 0.005
)

// FitBounds returns the padded bounding box of coords for framing a route on a map.
// The span never drops below minSpanDeg in either direction.
func FitBounds(coords []domain.Coordinate) (orb.Bound, bool) {
	if len(coords) == 0 {
		return orb.Bound{}, false
	}

	b := domain.LineString(coords).Bound()
	center := orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
	halfLat := math.Max((b.Max[1]-b.Min[1])*fitPadding, minSpanDeg) / 2
	halfLon := math.Max((b.Max[0]-b.Min[0])*fitPadding, minSpanDeg) / 2

	return orb.Bound{
		Min: orb.Point{center[0] - halfLon, center[1] - halfLat},
		Max: orb.Point{center[0] + halfLon, center[1] + halfLat},
	}, true
}
