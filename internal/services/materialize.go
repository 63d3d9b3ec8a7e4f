package services

import (
	"context"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/path"
	"route-navigation-service/internal/platform/obs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LiveWaypointID marks the leading segment from the live position.
const LiveWaypointID = "live"

// Navigation is an edited path committed for navigation.
type Navigation struct {
	Route *SegmentChain
	// Leading reports whether a segment from the live position was prepended.
	Leading bool
	// Gaps lists the slots that still had no segment after one retry.
	// The route skips them.
	Gaps            []int
	DistanceMeters  float64
	DurationSeconds float64
}

// MaterializeForNavigation turns the current path into a single route.
//
// When live is given and farther than the arrival epsilon from the first
// waypoint, a leading segment from live is routed. Every slot without a
// segment is routed once more; slots that fail again stay gaps and are left
// out of the route. The route is assembled from the path as it stands once
// every call has returned, so a background result that landed meanwhile is
// used. Distance and duration are summed over the router results.
func (s *EditSession) MaterializeForNavigation(ctx context.Context, live *domain.Coordinate) (_ *Navigation, err error) {
	defer obs.Time(ctx, "edit.MaterializeForNavigation")(&err)

	snap, err := s.liveSnapshot()
	if err != nil {
		return nil, err
	}

	var (
		leading  *domain.Segment
		retried  = make([]*retry, len(snap.Slots))
		g        errgroup.Group
		opts     = s.settings.RouteOptions()
		firstWpt = snap.Waypoints[0]
	)
	g.SetLimit(s.settings.MaxParallelRecompute)

	if live != nil && geo.GreatCircleDistance(*live, firstWpt.Coordinate) > s.settings.ArrivalEpsilonM {
		from := domain.Waypoint{ID: LiveWaypointID, Coordinate: *live}
		g.Go(func() error {
			d, err := s.router.Route(ctx, from.Coordinate, firstWpt.Coordinate, opts)
			if err != nil {
				s.log.Info("materialize.leading_failed", zap.Error(err))
				return nil
			}
			seg := domain.NewSegment(from, firstWpt, d)
			leading = &seg
			return nil
		})
	}

	for i, slot := range snap.Slots {
		if slot.State == path.SlotRouted {
			continue
		}
		job := recompute{generation: snap.Generation, slot: i, from: snap.Waypoints[i], to: snap.Waypoints[i+1]}
		g.Go(func() error {
			d, err := s.router.Route(ctx, job.from.Coordinate, job.to.Coordinate, opts)
			if ctx.Err() != nil {
				// A cancelled request says nothing about the pair.
				return nil
			}
			if err == nil {
				retried[job.slot] = &retry{from: job.from, to: job.to, seg: domain.NewSegment(job.from, job.to, d)}
			}
			s.apply(job, d, err)
			return nil
		})
	}

	// Goroutines never return errors; failures become gaps.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}

	final, err := s.liveSnapshot()
	if err != nil {
		return nil, err
	}

	nav := &Navigation{}
	segs := make([]domain.Segment, 0, len(final.Slots)+1)
	if leading != nil && final.Waypoints[0].Same(firstWpt) {
		nav.Leading = true
		segs = append(segs, *leading)
	}
	for i, slot := range final.Slots {
		if slot.State == path.SlotRouted {
			segs = append(segs, *slot.Segment)
			continue
		}
		if r := findRetry(retried, final.Waypoints[i], final.Waypoints[i+1]); r != nil {
			segs = append(segs, r.seg)
			continue
		}
		nav.Gaps = append(nav.Gaps, i)
	}

	for _, seg := range segs {
		nav.DistanceMeters += seg.DistanceMeters
		nav.DurationSeconds += seg.DurationSeconds
	}
	nav.Route = NewSegmentChain(segs, nil, s.settings.NominalSpeedMPS)

	return nav, nil
}

// retry is a successful materialize call for one waypoint pair.
type retry struct {
	from, to domain.Waypoint
	seg      domain.Segment
}

func findRetry(retried []*retry, from, to domain.Waypoint) *retry {
	for _, r := range retried {
		if r != nil && r.from.Same(from) && r.to.Same(to) {
			return r
		}
	}
	return nil
}

// liveSnapshot returns the current path, failing for a closed session or an
// empty path.
func (s *EditSession) liveSnapshot() (path.Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return path.Snapshot{}, fmt.Errorf("materialize: %w", domain.ErrSessionNotFound)
	}
	snap := s.model.Snapshot()
	s.mu.Unlock()

	if len(snap.Waypoints) == 0 {
		return path.Snapshot{}, fmt.Errorf("materialize: empty path: %w", domain.ErrDegenerateInput)
	}
	return snap, nil
}
