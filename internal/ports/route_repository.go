package ports

import (
	"context"
	"route-navigation-service/internal/domain"
)

// Port: a boundary for the flat list of named, saved waypoint lists.
type RouteRepository interface {
	Save(ctx context.Context, r domain.SavedRoute) (domain.SavedRoute, error)
	List(ctx context.Context) ([]domain.SavedRoute, error)
	// Return domain.ErrRouteNotFound when no route has the id.
	Get(ctx context.Context, id string) (domain.SavedRoute, error)
	Delete(ctx context.Context, id string) error
}
