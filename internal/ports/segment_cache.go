package ports

import (
	"context"
	"route-navigation-service/internal/domain"
)

// Persistent store for previously routed coordinate pairs.
type SegmentCache interface {
	// Return the cached directions for key; ok is false on a miss.
	Get(ctx context.Context, key string) (d domain.Directions, ok bool, err error)
	Put(ctx context.Context, key string, d domain.Directions) error
}
