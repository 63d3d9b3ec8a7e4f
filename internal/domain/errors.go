package domain

import "errors"

var (
	// The router could not connect two points. Leaves a gap, never fatal.
	ErrNoRoute = errors.New("no route found")

	// Empty or zero-length geometry where a path was required.
	ErrDegenerateInput = errors.New("degenerate input")

	// An asynchronous result arrived after its target waypoint changed.
	ErrStaleResult = errors.New("stale edit result")

	ErrIndexOutOfRange = errors.New("waypoint index out of range")
	ErrSessionNotFound = errors.New("session not found")
	ErrRouteNotFound   = errors.New("route not found")
	ErrNoActiveRoute   = errors.New("no active route")
	ErrPlaceNotFound   = errors.New("place not found")
)
