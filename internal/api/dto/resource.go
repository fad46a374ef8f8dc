package dto

type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ResourceResponse struct {
	ID          int                 `json:"id"`
	Capability  string              `json:"capability"`
	Status      string              `json:"status"`
	Position    CoordinateResponse  `json:"position"`
	Destination *CoordinateResponse `json:"destination,omitempty"`
	RouteKey    string              `json:"route_key,omitempty"`
	Progress    float64             `json:"progress"`
	LegIndex    int                 `json:"leg_index"`
	StepIndex   int                 `json:"step_index"`
	Heading     float64             `json:"heading"`
}

type ListResourcesResponse struct {
	Resources []ResourceResponse `json:"resources"`
	Count     int                `json:"count"`
}
