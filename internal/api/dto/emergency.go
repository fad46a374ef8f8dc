package dto

type EmergencyResponse struct {
	ID           int                `json:"id"`
	Location     CoordinateResponse `json:"location"`
	Priority     string             `json:"priority"`
	Requirements []int              `json:"requirements"`
	OffsetMS     int64              `json:"offset_ms"`
	Description  string             `json:"description,omitempty"`
}

type ListEmergenciesResponse struct {
	Emergencies []EmergencyResponse `json:"emergencies"`
	ElapsedMS   int64               `json:"elapsed_ms"`
}
