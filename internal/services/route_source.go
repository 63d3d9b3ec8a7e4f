package services

import (
	"math"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"

	"github.com/paulmach/orb"
)

// RouteSource is a committed route that progress can be measured against.
// A step route from the directions service and a chain of edited segments
// answer the same queries.
type RouteSource interface {
	TotalDistance() float64
	TotalDuration() float64
	// Polyline returns the whole route geometry in order.
	Polyline() []domain.Coordinate
	StepAt(pos domain.Coordinate) domain.Instruction
	ProgressAt(pos domain.Coordinate) domain.ProgressState
}

// unit is one measurable piece of a route: a step or a segment.
type unit struct {
	line   orb.LineString
	length float64
	text   string
	icon   string
}

// unitRoute holds the units of a route projected once into a single metric.
// It is immutable after construction and safe for concurrent reads.
type unitRoute struct {
	proj     geo.Projection
	units    []unit
	offsets  []float64
	total    float64
	polyline []domain.Coordinate
}

func newUnitRoute(proj geo.Projection, units []unit, polyline []domain.Coordinate) *unitRoute {
	r := &unitRoute{
		proj:     proj,
		units:    units,
		offsets:  make([]float64, len(units)),
		polyline: polyline,
	}
	for i, u := range units {
		r.offsets[i] = r.total
		r.total += u.length
	}
	return r
}

// metricFor fixes the metric of a route at its first coordinate.
func metricFor(coords []domain.Coordinate) geo.Projection {
	if len(coords) == 0 {
		return geo.NewLocalMercator(domain.Coordinate{})
	}
	return geo.NewLocalMercator(coords[0])
}

func newUnit(proj geo.Projection, coords []domain.Coordinate, text, icon string) unit {
	line := geo.ProjectLine(proj, coords)
	return unit{line: line, length: geo.PolylineLength(line), text: text, icon: icon}
}

// locate finds the unit nearest to p. Ties go to the lower index.
// It returns -1 when the route has no measurable unit.
func (r *unitRoute) locate(p orb.Point) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, u := range r.units {
		if len(u.line) == 0 {
			continue
		}
		if d := geo.DistanceToPolyline(u.line, p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// measure computes the distance part of a progress state for pos.
// Duration is left to the caller since step routes and segment chains
// estimate it differently.
func (r *unitRoute) measure(pos domain.Coordinate) domain.ProgressState {
	if len(r.units) == 0 {
		return domain.ProgressState{}
	}

	p := r.proj.Forward(pos)
	idx, dist := r.locate(p)
	if idx < 0 {
		return domain.ProgressState{}
	}

	u := r.units[idx]
	remainIn := math.Max(0, geo.RemainingDistanceOnPolyline(p, u.line))
	passed := r.offsets[idx] + (u.length - remainIn)

	state := domain.ProgressState{
		NearestIndex:           idx,
		RemainingInCurrentUnit: remainIn,
		RemainingTotalDistance: math.Max(0, r.total-passed),
		ActiveInstructionText:  u.text,
		ActiveIconHint:         u.icon,
		DistanceToRoute:        dist,
	}
	if r.total > 0 {
		state.Fraction = clamp01(passed / math.Max(r.total, minTotal))
	}
	return state
}

func (r *unitRoute) stepAt(pos domain.Coordinate) domain.Instruction {
	s := r.measure(pos)
	if len(r.units) == 0 {
		return domain.Instruction{Text: ContinueStraight, IconHint: IconStraight}
	}
	return domain.Instruction{
		Text:               s.ActiveInstructionText,
		IconHint:           s.ActiveIconHint,
		DistanceToManeuver: s.RemainingInCurrentUnit,
	}
}

// minTotal keeps the fraction denominator away from zero.
const minTotal = 1e-9

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// StepRoute is a route returned by the directions service, measured per step.
type StepRoute struct {
	*unitRoute
	directions domain.Directions
}

// NewStepRoute measures d with proj, or with a local metric at the route
// start when proj is nil. Directions without steps become a single unit.
func NewStepRoute(d domain.Directions, proj geo.Projection) *StepRoute {
	if proj == nil {
		proj = metricFor(d.Polyline)
	}

	units := make([]unit, 0, len(d.Steps))
	for _, s := range d.Steps {
		text := instructionText(s.Instruction)
		icon := s.IconHint
		if icon == "" {
			icon = IconHint(text)
		}
		units = append(units, newUnit(proj, s.Polyline, text, icon))
	}
	if len(units) == 0 && len(d.Polyline) > 0 {
		units = append(units, newUnit(proj, d.Polyline, ContinueStraight, IconStraight))
	}

	return &StepRoute{unitRoute: newUnitRoute(proj, units, d.Polyline), directions: d}
}

// TotalDistance is the distance reported by the directions service, or the
// measured length when the service gave none.
func (r *StepRoute) TotalDistance() float64 {
	if r.directions.DistanceMeters > 0 {
		return r.directions.DistanceMeters
	}
	return r.total
}

// TotalDuration is the duration reported by the directions service.
func (r *StepRoute) TotalDuration() float64 { return r.directions.DurationSeconds }

func (r *StepRoute) Polyline() []domain.Coordinate { return r.polyline }

func (r *StepRoute) Directions() domain.Directions { return r.directions }

func (r *StepRoute) StepAt(pos domain.Coordinate) domain.Instruction { return r.stepAt(pos) }

// ProgressAt scales the service distance and duration by the remaining share
// of the measured geometry, so totals agree with TotalDistance.
func (r *StepRoute) ProgressAt(pos domain.Coordinate) domain.ProgressState {
	s := r.measure(pos)
	if r.total > 0 {
		share := s.RemainingTotalDistance / math.Max(r.total, minTotal)
		s.RemainingTotalDistance = math.Max(0, r.TotalDistance()*share)
		s.RemainingTotalDuration = math.Max(0, r.directions.DurationSeconds*share)
	}
	return s
}

// SegmentChain is an edited path committed for navigation. Every segment is
// one unit and reports "Continue straight".
type SegmentChain struct {
	*unitRoute
	segments     []domain.Segment
	nominalSpeed float64
}

// NewSegmentChain measures segs with proj, or with a local metric at the first
// segment when proj is nil. nominalSpeed is meters per second.
func NewSegmentChain(segs []domain.Segment, proj geo.Projection, nominalSpeed float64) *SegmentChain {
	var polyline []domain.Coordinate
	for _, s := range segs {
		polyline = append(polyline, s.Polyline...)
	}
	if proj == nil {
		proj = metricFor(polyline)
	}
	if nominalSpeed <= 0 {
		nominalSpeed = DefaultSettings().NominalSpeedMPS
	}

	units := make([]unit, 0, len(segs))
	for _, s := range segs {
		units = append(units, newUnit(proj, s.Polyline, ContinueStraight, IconStraight))
	}

	return &SegmentChain{
		unitRoute:    newUnitRoute(proj, units, polyline),
		segments:     segs,
		nominalSpeed: nominalSpeed,
	}
}

func (c *SegmentChain) TotalDistance() float64 { return c.total }

// TotalDuration estimates travel time at the nominal speed.
func (c *SegmentChain) TotalDuration() float64 { return c.total / c.nominalSpeed }

func (c *SegmentChain) Polyline() []domain.Coordinate { return c.polyline }

func (c *SegmentChain) Segments() []domain.Segment { return c.segments }

func (c *SegmentChain) StepAt(pos domain.Coordinate) domain.Instruction { return c.stepAt(pos) }

func (c *SegmentChain) ProgressAt(pos domain.Coordinate) domain.ProgressState {
	s := c.measure(pos)
	s.RemainingTotalDuration = s.RemainingTotalDistance / c.nominalSpeed
	return s
}
