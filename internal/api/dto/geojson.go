package dto

// GeoJSON types used by the route overlay endpoint.

type LineStringGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type RouteFeature struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Geometry   LineStringGeometry `json:"geometry"`
	Properties RouteProperties    `json:"properties"`
}

type RouteProperties struct {
	ResourceID   int                `json:"resource_id"`
	Start        CoordinateResponse `json:"start"`
	End          CoordinateResponse `json:"end"`
	LengthMeters float64            `json:"length_meters"`
	Progress     float64            `json:"progress"`
	Arrived      bool               `json:"arrived"`
}

type RouteFeatureCollection struct {
	Type     string         `json:"type"`
	Features []RouteFeature `json:"features"`
}
