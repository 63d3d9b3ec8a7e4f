package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPointToSegment(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{10, 0}

	tests := []struct {
		name     string
		p        orb.Point
		wantProj orb.Point
		wantDist float64
	}{
		{name: "perpendicular foot inside segment", p: orb.Point{5, 5}, wantProj: orb.Point{5, 0}, wantDist: 5},
		{name: "clamped to start", p: orb.Point{-3, 4}, wantProj: orb.Point{0, 0}, wantDist: 5},
		{name: "clamped to end", p: orb.Point{13, -4}, wantProj: orb.Point{10, 0}, wantDist: 5},
		{name: "point on segment", p: orb.Point{7, 0}, wantProj: orb.Point{7, 0}, wantDist: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, dist := ProjectPointToSegment(tt.p, a, b)
			assert.InDelta(t, tt.wantProj[0], proj[0], 1e-9)
			assert.InDelta(t, tt.wantProj[1], proj[1], 1e-9)
			assert.InDelta(t, tt.wantDist, dist, 1e-9)
		})
	}
}

func TestProjectPointToSegment_ZeroLength(t *testing.T) {
	a := orb.Point{2, 2}

	proj, dist := ProjectPointToSegment(orb.Point{2, 5}, a, a)
	assert.Equal(t, a, proj)
	assert.InDelta(t, 3, dist, 1e-9)
	assert.False(t, math.IsNaN(dist), "zero-length segment must not divide by zero")
}

func TestNearestOnPolyline(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}

	hit := NearestOnPolyline(line, orb.Point{12, 5})
	require.True(t, hit.Found())
	assert.Equal(t, 1, hit.Index)
	assert.InDelta(t, 2, hit.Distance, 1e-9)
	assert.InDelta(t, 10, hit.Point[0], 1e-9)
	assert.InDelta(t, 5, hit.Point[1], 1e-9)
}

func TestNearestOnPolyline_TieGoesToLowerIndex(t *testing.T) {
	// The shared vertex (10,0) is equally close on both sub-segments.
	line := orb.LineString{{0, 0}, {10, 0}, {20, 0}}

	hit := NearestOnPolyline(line, orb.Point{10, 3})
	assert.Equal(t, 0, hit.Index)
	assert.InDelta(t, 3, hit.Distance, 1e-9)
}

func TestNearestOnPolyline_Degenerate(t *testing.T) {
	empty := NearestOnPolyline(nil, orb.Point{1, 1})
	assert.False(t, empty.Found())
	assert.True(t, math.IsInf(empty.Distance, 1))

	single := NearestOnPolyline(orb.LineString{{3, 4}}, orb.Point{0, 0})
	assert.Equal(t, 0, single.Index)
	assert.InDelta(t, 5, single.Distance, 1e-9)
}

func TestPolylineLength(t *testing.T) {
	assert.Equal(t, 0.0, PolylineLength(nil))
	assert.Equal(t, 0.0, PolylineLength(orb.LineString{{1, 1}}))
	assert.InDelta(t, 20, PolylineLength(orb.LineString{{0, 0}, {10, 0}, {10, 10}}), 1e-9)
}

func TestRemainingDistanceOnPolyline(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}, {20, 10}}

	tests := []struct {
		name string
		p    orb.Point
		want float64
	}{
		{name: "at start", p: orb.Point{0, 0}, want: 30},
		{name: "mid first sub-segment", p: orb.Point{4, 1}, want: 26},
		{name: "mid last sub-segment", p: orb.Point{15, 12}, want: 5},
		{name: "past the end", p: orb.Point{25, 10}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RemainingDistanceOnPolyline(tt.p, line), 1e-9)
		})
	}

	assert.Equal(t, 0.0, RemainingDistanceOnPolyline(orb.Point{1, 1}, orb.LineString{{0, 0}}))
}
