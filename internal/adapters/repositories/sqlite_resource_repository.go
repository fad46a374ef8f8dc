package repositories

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLite-backed implementation of the ResourceRepository port.
type SqliteResourceRepository struct{ DB *sql.DB }

func NewSqliteResourceRepository(db *sql.DB) *SqliteResourceRepository {
	return &SqliteResourceRepository{DB: db}
}

// Return all seeded resources ordered by id.
func (s *SqliteResourceRepository) ListResources(ctx context.Context) ([]domain.Resource, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite resource repository: DB is nil")
	}

	query := `
	SELECT
		resource_id,
		capability,
		lat,
		lon
	FROM resources
	ORDER BY resource_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list resources: query resources table: %w", err)
	}
	defer rows.Close()

	resources := make([]domain.Resource, 0, 64)
	for rows.Next() {
		var r domain.Resource
		var capability int
		if err := rows.Scan(&r.ID, &capability, &r.Position.Lat, &r.Position.Lon); err != nil {
			return nil, fmt.Errorf("list resources: scan row: %w", err)
		}
		r.Capability = domain.Capability(capability)
		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resources: row iteration: %w", err)
	}

	return resources, nil
}

// Return all scripted emergencies ordered by activation offset.
func (s *SqliteResourceRepository) ListEmergencies(ctx context.Context) ([]domain.Emergency, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite resource repository: DB is nil")
	}

	query := `
	SELECT
		emergency_id,
		lat,
		lon,
		priority,
		requirements,
		offset_ms,
		description
	FROM emergencies
	ORDER BY offset_ms, emergency_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list emergencies: query emergencies table: %w", err)
	}
	defer rows.Close()

	emergencies := make([]domain.Emergency, 0, 16)
	for rows.Next() {
		var e domain.Emergency
		var priority, requirements string
		var offsetMS int64
		err := rows.Scan(&e.ID, &e.Location.Lat, &e.Location.Lon, &priority, &requirements, &offsetMS, &e.Description)
		if err != nil {
			return nil, fmt.Errorf("list emergencies: scan row: %w", err)
		}

		e.Priority, err = domain.ParsePriority(priority)
		if err != nil {
			return nil, fmt.Errorf("list emergencies: emergency_id=%d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(requirements), &e.Requirements); err != nil {
			return nil, fmt.Errorf("list emergencies: emergency_id=%d: decode requirements: %w", e.ID, err)
		}
		e.Offset = time.Duration(offsetMS) * time.Millisecond

		emergencies = append(emergencies, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list emergencies: row iteration: %w", err)
	}

	return emergencies, nil
}
