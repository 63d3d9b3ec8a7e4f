package routing

import (
	"context"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/ports"
	"sync"
)

// MockRouter connects every pair with a straight line. Failures can be
// injected per pair and calls can be held at a gate to order concurrent
// results in tests.
type MockRouter struct {
	SpeedMPS float64

	mu      sync.Mutex
	fail    map[string]error
	failAll error
	gate    chan struct{}
	release func()
	calls   int
}

func NewMockRouter() *MockRouter {
	return &MockRouter{SpeedMPS: 12.5, fail: map[string]error{}}
}

func pairKey(from, to domain.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// FailPair makes routing from -> to return err (domain.ErrNoRoute when nil).
func (m *MockRouter) FailPair(from, to domain.Coordinate, err error) {
	if err == nil {
		err = domain.ErrNoRoute
	}
	m.mu.Lock()
	m.fail[pairKey(from, to)] = err
	m.mu.Unlock()
}

// FailAll makes every call fail with err until cleared with nil.
func (m *MockRouter) FailAll(err error) {
	m.mu.Lock()
	m.failAll = err
	m.mu.Unlock()
}

func (m *MockRouter) ClearFailures() {
	m.mu.Lock()
	m.fail = map[string]error{}
	m.failAll = nil
	m.mu.Unlock()
}

// Hold blocks subsequent calls until Release or until the returned func is
// called. A second Hold starts a new gate; calls already waiting stay on the
// old one, so held results can be let through in a chosen order.
func (m *MockRouter) Hold() func() {
	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })

	m.mu.Lock()
	m.gate = gate
	m.release = release
	m.mu.Unlock()
	return release
}

// Release opens the current gate.
func (m *MockRouter) Release() {
	m.mu.Lock()
	release := m.release
	m.gate, m.release = nil, nil
	m.mu.Unlock()

	if release != nil {
		release()
	}
}

func (m *MockRouter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockRouter) Route(ctx context.Context, from, to domain.Coordinate, opts ports.RouteOptions) (domain.Directions, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	err := m.failAll
	if err == nil {
		err = m.fail[pairKey(from, to)]
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Directions{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Directions{}, fmt.Errorf("mock route %s: %w", pairKey(from, to), err)
	}

	meters := geo.GreatCircleDistance(from, to)
	speed := m.SpeedMPS
	if speed <= 0 {
		speed = 12.5
	}
	line := []domain.Coordinate{from, to}

	return domain.Directions{
		Polyline:        line,
		DistanceMeters:  meters,
		DurationSeconds: meters / speed,
		Steps: []domain.Step{{
			Instruction:     "Head straight",
			IconHint:        "arrow.up",
			DistanceMeters:  meters,
			DurationSeconds: meters / speed,
			Polyline:        line,
		}},
	}, nil
}
