package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"route-navigation-service/internal/adapters/repositories"
	"route-navigation-service/internal/adapters/routing"
	"route-navigation-service/internal/api/dto"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/path"
	"route-navigation-service/internal/platform/db"
	"route-navigation-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pointA = dto.Coordinate{Lat: 35.6800, Lon: 139.7600}
	pointB = dto.Coordinate{Lat: 35.6850, Lon: 139.7650}
	pointC = dto.Coordinate{Lat: 35.6900, Lon: 139.7700}
)

type fakeGeocoder map[string]domain.Coordinate

func (f fakeGeocoder) Geocode(_ context.Context, text string) (domain.Coordinate, error) {
	if c, ok := f[text]; ok {
		return c, nil
	}
	return domain.Coordinate{}, domain.ErrPlaceNotFound
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	registry *services.Registry
	router   *routing.MockRouter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn, db.SQLite))

	mock := routing.NewMockRouter()
	reg := services.NewRegistry(mock, services.DefaultSettings(), nil)
	t.Cleanup(reg.CloseAll)

	h := NewRouter(Deps{
		Registry: reg,
		Repo:     repositories.NewSQLRouteRepository(conn, db.SQLite),
		Geocoder: fakeGeocoder{"shinjuku": {Lat: 35.6895, Lon: 139.6917}},
		Now:      func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
	return &testServer{t: t, handler: h, registry: reg, router: mock}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// settle waits for background segment routing of a session.
func (s *testServer) settle(id string) {
	s.t.Helper()
	sess, err := s.registry.Get(id)
	require.NoError(s.t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(s.t, sess.Edit.Wait(ctx))
}

func (s *testServer) newSession(points ...dto.Coordinate) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/sessions", dto.CreateSessionRequest{Points: points})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[dto.SessionResponse](s.t, rec).ID
	s.settle(id)
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSessionEditFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[dto.SessionResponse](t, rec).ID

	for _, p := range []dto.Coordinate{pointA, pointC} {
		rec = s.do(http.MethodPost, "/sessions/"+id+"/waypoints", p)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	s.settle(id)

	rec = s.do(http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[dto.SessionResponse](t, rec)
	require.Len(t, got.Path.Waypoints, 2)
	require.Len(t, got.Path.Slots, 1)
	assert.Equal(t, path.SlotRouted, got.Path.Slots[0].State)

	rec = s.do(http.MethodPut, "/sessions/"+id+"/waypoints/1", pointB)
	require.Equal(t, http.StatusOK, rec.Code)
	s.settle(id)

	rec = s.do(http.MethodDelete, "/sessions/"+id+"/waypoints/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.SessionResponse](t, rec).Path.Waypoints, 1)

	rec = s.do(http.MethodPost, "/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[dto.SessionResponse](t, rec).Path.Waypoints)

	rec = s.do(http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointA, pointB)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/sessions/nope", nil, http.StatusNotFound},
		{"index out of range", http.MethodDelete, "/sessions/" + id + "/waypoints/7", nil, http.StatusBadRequest},
		{"index not a number", http.MethodPut, "/sessions/" + id + "/waypoints/x", pointA, http.StatusBadRequest},
		{"latitude out of range", http.MethodPost, "/sessions/" + id + "/waypoints", dto.Coordinate{Lat: 91}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/sessions/" + id + "/waypoints", map[string]any{"lat": 1, "lng": 2}, http.StatusBadRequest},
		{"progress before navigation", http.MethodPost, "/sessions/" + id + "/progress", pointA, http.StatusConflict},
		{"unknown route id", http.MethodPost, "/sessions", dto.CreateSessionRequest{RouteID: "nope"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestInsertAndHitTest(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointA, pointC)

	// A viewport centered on B: the midpoint of the straight A-C segment lies at
	// the screen center.
	vp := dto.Viewport{Center: pointB, Zoom: 16, Width: 800, Height: 600}

	rec := s.do(http.MethodPost, "/sessions/"+id+"/waypoints/insert", dto.ScreenTapRequest{X: 400, Y: 300, Viewport: vp})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ins := decode[dto.InsertResponse](t, rec)
	assert.True(t, ins.Inserted)
	assert.Len(t, ins.Path.Waypoints, 3)

	rec = s.do(http.MethodPost, "/sessions/"+id+"/waypoints/insert", dto.ScreenTapRequest{X: 5, Y: 5, Viewport: vp})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.InsertResponse](t, rec).Inserted)

	rec = s.do(http.MethodPost, "/sessions/"+id+"/waypoints/hit", dto.ScreenTapRequest{X: 402, Y: 298, Viewport: vp})
	require.Equal(t, http.StatusOK, rec.Code)
	hit := decode[dto.HitTestResponse](t, rec)
	assert.True(t, hit.Found)
	assert.Equal(t, 1, hit.Index)
}

func TestNavigationAndProgress(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointA, pointB, pointC)

	rec := s.do(http.MethodPost, "/sessions/"+id+"/navigation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	nav := decode[dto.NavigationResponse](t, rec)
	assert.False(t, nav.Leading)
	assert.Empty(t, nav.Gaps)
	assert.Greater(t, nav.DistanceMeters, 0.0)
	assert.Equal(t, services.Depart, nav.Progress.ActiveInstructionText)
	require.NotNil(t, nav.Bounds)

	rec = s.do(http.MethodPost, "/sessions/"+id+"/progress", pointB)
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[dto.ProgressResponse](t, rec)
	assert.InDelta(t, 0.5, prog.Progress.Fraction, 0.05)
	assert.Equal(t, services.ContinueStraight, prog.Progress.ActiveInstructionText)
	assert.True(t, strings.HasSuffix(prog.HUD.RemainingDistance, "m"))
	assert.True(t, prog.HUD.ETA.After(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))

	rec = s.do(http.MethodGet, "/sessions/"+id, nil)
	assert.True(t, decode[dto.SessionResponse](t, rec).Navigating)

	rec = s.do(http.MethodDelete, "/sessions/"+id+"/navigation", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodPost, "/sessions/"+id+"/progress", pointB)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNavigationWithLiveLeadingSegment(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointB, pointC)

	rec := s.do(http.MethodPost, "/sessions/"+id+"/navigation", dto.NavigationRequest{Live: &pointA})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.NavigationResponse](t, rec).Leading)
}

func TestSessionExport(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointA, pointB)

	rec := s.do(http.MethodGet, "/sessions/"+id+"/export.geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)

	rec = s.do(http.MethodGet, "/sessions/"+id+"/export.kml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Placemark>")

	rec = s.do(http.MethodGet, "/sessions/"+id+"/bounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[dto.Bounds](t, rec)
	assert.Less(t, b.SouthWest.Lat, pointA.Lat)
	assert.Greater(t, b.NorthEast.Lat, pointB.Lat)
}

func TestSavedRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(pointA, pointB, pointC)

	rec := s.do(http.MethodPost, "/routes", dto.SaveRouteRequest{Name: "Morning loop", SessionID: id})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[dto.RouteResponse](t, rec)
	assert.Len(t, saved.Points, 3)

	rec = s.do(http.MethodPost, "/routes", dto.SaveRouteRequest{Name: "Short", Points: []dto.Coordinate{pointA, pointB}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/routes", dto.SaveRouteRequest{Name: "Empty"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/routes", dto.SaveRouteRequest{Points: []dto.Coordinate{pointA}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.ListRouteResponse](t, rec).Routes, 2)

	rec = s.do(http.MethodPost, "/sessions", dto.CreateSessionRequest{RouteID: saved.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	loaded := decode[dto.SessionResponse](t, rec)
	assert.Len(t, loaded.Path.Waypoints, 3)
	s.settle(loaded.ID)

	rec = s.do(http.MethodGet, "/routes/"+saved.ID+"/export.kml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Morning loop")

	rec = s.do(http.MethodDelete, "/routes/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/routes/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDirections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/directions", dto.DirectionsRequest{From: pointA, To: &pointC})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.DirectionsResponse](t, rec)
	assert.NotEmpty(t, res.Directions.Polyline)
	assert.Equal(t, services.Depart, res.Progress.ActiveInstructionText)
	assert.Empty(t, res.SessionID)

	rec = s.do(http.MethodPost, "/directions", dto.DirectionsRequest{From: pointA, ToText: "shinjuku", Edit: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[dto.DirectionsResponse](t, rec)
	assert.InDelta(t, 139.6917, res.To.Lon, 1e-9)
	require.NotEmpty(t, res.SessionID)

	rec = s.do(http.MethodGet, "/sessions/"+res.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[dto.SessionResponse](t, rec)
	assert.Len(t, sess.Path.Waypoints, 2)
	assert.True(t, sess.Navigating)

	rec = s.do(http.MethodPost, "/directions", dto.DirectionsRequest{From: pointA, ToText: "atlantis"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/directions", dto.DirectionsRequest{From: pointA})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.router.FailAll(domain.ErrNoRoute)
	rec = s.do(http.MethodPost, "/directions", dto.DirectionsRequest{From: pointA, To: &pointC})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGeocode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/geocode?q=shinjuku", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 35.6895, decode[dto.GeocodeResponse](t, rec).Point.Lat, 1e-9)

	rec = s.do(http.MethodGet, "/geocode", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
