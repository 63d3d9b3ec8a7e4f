package geo

import (
	"math"
	"route-navigation-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize       = 256.0
	mercatorRadius = 6378137.0
)

// Viewport converts between geographic coordinates and screen pixels for a
// Web Mercator map view centered on Center at zoom level Zoom.
// Screen origin is the top-left corner, y grows downwards.
type Viewport struct {
	Center domain.Coordinate
	Zoom   float64
	Width  float64
	Height float64
}

func (v Viewport) worldSize() float64 { return tileSize * math.Pow(2, v.Zoom) }

func (v Viewport) worldPixel(c domain.Coordinate) orb.Point {
	m := project.WGS84.ToMercator(c.Point())
	size := v.worldSize()
	half := math.Pi * mercatorRadius
	return orb.Point{
		(m[0] + half) / (2 * half) * size,
		(half - m[1]) / (2 * half) * size,
	}
}

// ToScreen returns the pixel position of c inside the viewport.
func (v Viewport) ToScreen(c domain.Coordinate) orb.Point {
	p := v.worldPixel(c)
	center := v.worldPixel(v.Center)
	return orb.Point{p[0] - center[0] + v.Width/2, p[1] - center[1] + v.Height/2}
}

// ToCoordinate is the inverse of ToScreen.
func (v Viewport) ToCoordinate(p orb.Point) domain.Coordinate {
	center := v.worldPixel(v.Center)
	wx := p[0] - v.Width/2 + center[0]
	wy := p[1] - v.Height/2 + center[1]

	size := v.worldSize()
	half := math.Pi * mercatorRadius
	m := orb.Point{
		wx/size*2*half - half,
		half - wy/size*2*half,
	}
	return domain.CoordinateFromPoint(project.Mercator.ToWGS84(m))
}
