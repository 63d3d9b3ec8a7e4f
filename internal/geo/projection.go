package geo

import (
	"math"
	"route-navigation-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// Projection maps geographic coordinates into the planar metric space used by
// the geometry functions, and back.
type Projection interface {
	Forward(c domain.Coordinate) orb.Point
	Inverse(p orb.Point) domain.Coordinate
}

// LocalMercator is spherical Mercator rescaled so that one unit is one meter at
// the reference latitude. Being conformal, perpendicular projections stay
// perpendicular; the scale is fixed once per route.
type LocalMercator struct {
	scale float64
}

// NewLocalMercator fixes the metric at the latitude of ref.
func NewLocalMercator(ref domain.Coordinate) LocalMercator {
	return LocalMercator{scale: math.Cos(ref.Lat * math.Pi / 180)}
}

func (m LocalMercator) Forward(c domain.Coordinate) orb.Point {
	p := project.WGS84.ToMercator(c.Point())
	return orb.Point{p[0] * m.scale, p[1] * m.scale}
}

func (m LocalMercator) Inverse(p orb.Point) domain.Coordinate {
	if m.scale == 0 {
		return domain.CoordinateFromPoint(project.Mercator.ToWGS84(p))
	}
	return domain.CoordinateFromPoint(project.Mercator.ToWGS84(orb.Point{p[0] / m.scale, p[1] / m.scale}))
}

// Identity treats lon/lat as plain x/y. Useful for synthetic planar paths.
type Identity struct{}

func (Identity) Forward(c domain.Coordinate) orb.Point { return c.Point() }

func (Identity) Inverse(p orb.Point) domain.Coordinate { return domain.CoordinateFromPoint(p) }

// ProjectLine projects a coordinate sequence into the planar space of proj.
func ProjectLine(proj Projection, coords []domain.Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, proj.Forward(c))
	}
	return ls
}

// GreatCircleDistance returns the haversine distance in meters between two coordinates.
func GreatCircleDistance(a, b domain.Coordinate) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}
