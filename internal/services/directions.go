package services

import (
	"context"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/obs"
	"route-navigation-service/internal/ports"
)

// PlanDirect asks the router for a route straight to a destination and
// returns it as a step route, as used for "navigate to destination".
func PlanDirect(
	ctx context.Context,
	router ports.Router,
	from domain.Coordinate,
	to domain.Coordinate,
	opts ports.RouteOptions,
) (_ *StepRoute, err error) {
	defer obs.Time(ctx, "services.PlanDirect")(&err)

	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("plan direct: %v -> %v: %w", from, to, domain.ErrDegenerateInput)
	}

	d, err := router.Route(ctx, from, to, opts)
	if err != nil {
		return nil, fmt.Errorf("plan direct: route %v -> %v: %w", from, to, err)
	}
	if len(d.Polyline) == 0 {
		return nil, fmt.Errorf("plan direct: empty geometry: %w", domain.ErrDegenerateInput)
	}

	return NewStepRoute(d, nil), nil
}
