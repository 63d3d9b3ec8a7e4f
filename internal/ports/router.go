package ports

import (
	"context"
	"route-navigation-service/internal/domain"
)

// Options that influence how a road route is chosen.
type RouteOptions struct {
	AllowHighways bool
}

// Contract for the external directions service.
//
// A router never retries on behalf of the caller. domain.ErrNoRoute signals
// that the two points cannot be connected; any other error is a transport or
// service failure.
type Router interface {
	// Return the road route between two coordinates.
	Route(ctx context.Context, from, to domain.Coordinate, opts RouteOptions) (domain.Directions, error)
}
