package ports

import (
	"context"
	"route-navigation-service/internal/domain"
)

// Resolves free-text destinations (search-to-route) into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (domain.Coordinate, error)
}

// Persistent address -> coordinate lookups in front of a Geocoder.
// Keys are normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinate, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinate) error
}
