package ports

import (
	"context"
	"dispatch-route-service/internal/domain"
)

// Port: a boundary for loading the static fleet and emergency schedule.
type ResourceRepository interface {
	// Retrieve all vehicles known at startup.
	ListResources(ctx context.Context) ([]domain.Resource, error)
	// Retrieve all scheduled emergencies, ordered by offset.
	ListEmergencies(ctx context.Context) ([]domain.Emergency, error)
}
