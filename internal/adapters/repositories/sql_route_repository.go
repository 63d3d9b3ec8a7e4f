package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/platform/db"
	"route-navigation-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQL-backed implementation of the RouteRepository port.
// Points are stored as an encoded polyline with six decimals.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect db.Dialect

	now func() time.Time
}

func NewSQLRouteRepository(conn *sql.DB, dialect db.Dialect) *SQLRouteRepository {
	return &SQLRouteRepository{DB: conn, Dialect: dialect, now: time.Now}
}

// Save inserts a route, assigning an id and creation time when missing.
func (s *SQLRouteRepository) Save(ctx context.Context, r domain.SavedRoute) (_ domain.SavedRoute, err error) {
	defer obs.Time(ctx, "routes.Save")(&err)

	if s.DB == nil {
		return domain.SavedRoute{}, errors.New("route repository: DB is nil")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.SavedRoute{}, errors.New("save route: name cannot be empty")
	}
	if len(r.Points) == 0 {
		return domain.SavedRoute{}, fmt.Errorf("save route %q: no points: %w", r.Name, domain.ErrDegenerateInput)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC().Truncate(time.Second)
	}

	q := fmt.Sprintf(`
	INSERT INTO saved_routes (
		id,
		name,
		points,
		created_at
	)
	VALUES (%s);
	`, s.Dialect.Placeholders(1, 4))

	encoded := geo.EncodePolyline(geo.PrecisePolyline, r.Points)
	if _, err := s.DB.ExecContext(ctx, q, r.ID, r.Name, encoded, r.CreatedAt.Unix()); err != nil {
		return domain.SavedRoute{}, fmt.Errorf("save route %q: insert: %w", r.Name, err)
	}

	return r, nil
}

// Return all saved routes, newest first.
func (s *SQLRouteRepository) List(ctx context.Context) ([]domain.SavedRoute, error) {
	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		points,
		created_at
	FROM saved_routes
	ORDER BY created_at DESC, name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list routes: query saved_routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.SavedRoute, 0, 16)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

func (s *SQLRouteRepository) Get(ctx context.Context, id string) (domain.SavedRoute, error) {
	if s.DB == nil {
		return domain.SavedRoute{}, errors.New("route repository: DB is nil")
	}

	q := fmt.Sprintf(`
	SELECT id, name, points, created_at
	FROM saved_routes
	WHERE id = %s;
	`, s.Dialect.Placeholders(1, 1))

	r, err := scanRoute(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SavedRoute{}, fmt.Errorf("get route %q: %w", id, domain.ErrRouteNotFound)
	}
	if err != nil {
		return domain.SavedRoute{}, fmt.Errorf("get route %q: %w", id, err)
	}
	return r, nil
}

func (s *SQLRouteRepository) Delete(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	q := fmt.Sprintf(`DELETE FROM saved_routes WHERE id = %s;`, s.Dialect.Placeholders(1, 1))
	res, err := s.DB.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete route %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete route %q: %w", id, domain.ErrRouteNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (domain.SavedRoute, error) {
	var r domain.SavedRoute
	var encoded string
	var created int64
	if err := row.Scan(&r.ID, &r.Name, &encoded, &created); err != nil {
		return domain.SavedRoute{}, fmt.Errorf("scan row: %w", err)
	}

	points, err := geo.DecodePolyline(geo.PrecisePolyline, encoded)
	if err != nil {
		return domain.SavedRoute{}, fmt.Errorf("route %q: %w", r.ID, err)
	}
	r.Points = points
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}
