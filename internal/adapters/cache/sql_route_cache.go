package cache

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"errors"
	"fmt"
	"strings"
)

// SQLRouteCache is a Postgres-backed cache of provider routes keyed by route key.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

// Fetch a cached route. The bool is false on a cache miss.
func (s *SQLRouteCache) GetRoute(ctx context.Context, key string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.GetRoute")(&err)

	if s.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT payload
	FROM route_cache
	WHERE route_key = $1;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	route, err := decodeRoute(payload)
	if err != nil {
		return nil, false, fmt.Errorf("get route cache key=%q: %w", key, err)
	}

	return route, true, nil
}

// Store a route under its key, replacing any previous entry.
func (s *SQLRouteCache) PutRoute(ctx context.Context, route *domain.Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if route == nil || route.Key == "" {
		return errors.New("insert route cache: route must have a key")
	}

	payload, err := encodeRoute(route)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (route_key, payload, length_meters, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (route_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		length_meters = EXCLUDED.length_meters,
		updated_at = EXCLUDED.updated_at;
	`, route.Key, string(payload), route.Length)
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", route.Key, err)
	}

	return nil
}

// Clear removes every cached route and returns the number of rows deleted.
func (s *SQLRouteCache) Clear(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache;`)
	if err != nil {
		return 0, fmt.Errorf("clear route cache: %w", err)
	}
	return res.RowsAffected()
}
