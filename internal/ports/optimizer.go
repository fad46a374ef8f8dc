package ports

import (
	"context"
	"dispatch-route-service/internal/domain"
)

// Vehicle as submitted to the optimizer.
type OptimizeVehicle struct {
	ID         int
	Position   domain.Coordinate
	Capability domain.Capability
}

// Active emergency as submitted to the optimizer.
type OptimizeEmergency struct {
	ID           int
	Location     domain.Coordinate
	Priority     domain.Priority
	Requirements []int
}

type OptimizeRequest struct {
	Vehicles    []OptimizeVehicle
	Emergencies []OptimizeEmergency
}

// Contract for the external assignment optimizer.
type Optimizer interface {
	// Return vehicle -> emergency assignments for the given fleet state.
	Optimize(ctx context.Context, req OptimizeRequest) ([]domain.Assignment, error)
}
