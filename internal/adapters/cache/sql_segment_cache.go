package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/db"
	"route-navigation-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLSegmentCache is a SQL-backed cache of routed coordinate pairs, stored in
// the segment_cache table. Entries older than TTL are treated as misses;
// a zero TTL keeps entries forever.
type SQLSegmentCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	TTL     time.Duration

	now func() time.Time
}

func NewSQLSegmentCache(conn *sql.DB, dialect db.Dialect, ttl time.Duration) *SQLSegmentCache {
	return &SQLSegmentCache{DB: conn, Dialect: dialect, TTL: ttl, now: time.Now}
}

func (s *SQLSegmentCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Fetch the cached directions for one key.
func (s *SQLSegmentCache) Get(ctx context.Context, key string) (_ domain.Directions, _ bool, err error) {
	defer obs.Time(ctx, "segment.cache.Get")(&err)

	if s.DB == nil {
		return domain.Directions{}, false, errors.New("segment cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.Directions{}, false, errors.New("get segment cache: key must not be empty")
	}

	q := fmt.Sprintf(`
	SELECT payload, created_at
	FROM segment_cache
	WHERE cache_key = %s;
	`, s.Dialect.Placeholders(1, 1))

	var payload []byte
	var createdAt int64
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Directions{}, false, nil
	}
	if err != nil {
		return domain.Directions{}, false, fmt.Errorf("get segment cache: query segment_cache table: %w", err)
	}

	if s.TTL > 0 && s.clock().Sub(time.Unix(createdAt, 0)) > s.TTL {
		return domain.Directions{}, false, nil
	}

	d, err := decodeDirections(payload)
	if err != nil {
		return domain.Directions{}, false, fmt.Errorf("get segment cache key=%q: %w", key, err)
	}
	return d, true, nil
}

// Store directions under key, replacing any previous entry.
func (s *SQLSegmentCache) Put(ctx context.Context, key string, d domain.Directions) (err error) {
	defer obs.Time(ctx, "segment.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("segment cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert segment cache: empty key")
	}

	payload, err := encodeDirections(d)
	if err != nil {
		return fmt.Errorf("insert segment cache key=%q: %w", key, err)
	}

	var q string
	switch s.Dialect {
	case db.Postgres:
		q = `
	INSERT INTO segment_cache (cache_key, payload, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at;
	`
	default:
		q = `
	INSERT OR REPLACE INTO segment_cache (cache_key, payload, created_at)
	VALUES (?, ?, ?);
	`
	}

	if _, err := s.DB.ExecContext(ctx, q, key, payload, s.clock().Unix()); err != nil {
		return fmt.Errorf("insert segment cache key=%q: %w", key, err)
	}
	return nil
}

// Prune deletes entries older than TTL and returns how many were removed.
func (s *SQLSegmentCache) Prune(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("segment cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	q := fmt.Sprintf(`DELETE FROM segment_cache WHERE created_at < %s;`, s.Dialect.Placeholders(1, 1))
	res, err := s.DB.ExecContext(ctx, q, s.clock().Add(-s.TTL).Unix())
	if err != nil {
		return 0, fmt.Errorf("prune segment cache: %w", err)
	}
	return res.RowsAffected()
}
