package ports

import (
	"route-navigation-service/internal/domain"

	"github.com/paulmach/orb"
)

// Conversion between map coordinates and screen pixels, supplied by the map view.
// Insertion and waypoint hit-testing measure distances in screen space.
type ScreenProjector interface {
	ToScreen(c domain.Coordinate) orb.Point
	ToCoordinate(p orb.Point) domain.Coordinate
}
