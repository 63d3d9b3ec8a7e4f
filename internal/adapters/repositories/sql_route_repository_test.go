package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/db"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLRouteRepository {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := InitSchema(conn, db.SQLite); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewSQLRouteRepository(conn, db.SQLite)
}

func TestSQLRouteRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	points := []domain.Coordinate{{Lat: 35.681236, Lon: 139.767125}, {Lat: 35.689487, Lon: 139.691706}}
	saved, err := repo.Save(ctx, domain.SavedRoute{Name: "  Station loop ", Points: points})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID == "" || saved.Name != "Station loop" || saved.CreatedAt.IsZero() {
		t.Fatalf("save should assign id, trim name and set time, got %+v", saved)
	}

	got, err := repo.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(got.Points))
	}
	for i := range points {
		if d := got.Points[i].Lat - points[i].Lat; d > 1e-6 || d < -1e-6 {
			t.Fatalf("point %d lat = %v, want %v", i, got.Points[i].Lat, points[i].Lat)
		}
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestSQLRouteRepositoryListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	pts := []domain.Coordinate{{Lat: 1, Lon: 1}}

	for i, name := range []string{"old", "new"} {
		r := domain.SavedRoute{Name: name, Points: pts, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if _, err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	routes, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routes) != 2 || routes[0].Name != "new" || routes[1].Name != "old" {
		t.Fatalf("unexpected order: %+v", routes)
	}
}

func TestSQLRouteRepositoryNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("get: expected ErrRouteNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("delete: expected ErrRouteNotFound, got %v", err)
	}

	saved, err := repo.Save(ctx, domain.SavedRoute{Name: "x", Points: []domain.Coordinate{{Lat: 1, Lon: 1}}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, saved.ID); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("deleted route still returned: %v", err)
	}
}

func TestSQLRouteRepositoryRejectsEmptyRoute(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.Save(context.Background(), domain.SavedRoute{Name: "empty"}); !errors.Is(err, domain.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
	if _, err := repo.Save(context.Background(), domain.SavedRoute{Points: []domain.Coordinate{{}}}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestSeedRoutesFromJSON(t *testing.T) {
	repo := newTestRepo(t)

	path := filepath.Join(t.TempDir(), "routes.json")
	data := `[{"name":"Commute","points":[{"lat":35.68,"lon":139.76},{"lat":35.69,"lon":139.70}]}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	n, err := SeedRoutesFromJSON(context.Background(), repo, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("seeded %d routes, want 1", n)
	}

	routes, _ := repo.List(context.Background())
	if len(routes) != 1 || routes[0].Name != "Commute" || len(routes[0].Points) != 2 {
		t.Fatalf("unexpected routes: %+v", routes)
	}
}
