package domain

import "fmt"

// Default priority and capabilities for an incident category.
type IncidentProfile struct {
	Priority     Priority
	Capabilities []Capability
}

// Incident categories used by the incident exports.
var incidentCatalog = map[string]IncidentProfile{
	"Incident A": {Priority: PriorityImmediate, Capabilities: []Capability{CapabilityA, CapabilityB, CapabilityC}},
	"Incident B": {Priority: PriorityUrgent, Capabilities: []Capability{CapabilityB, CapabilityD, CapabilityE}},
	"Incident C": {Priority: PriorityRoutine, Capabilities: []Capability{CapabilityA, CapabilityB}},
	"Incident D": {Priority: PriorityNonUrgent, Capabilities: []Capability{CapabilityD}},
	"Incident E": {Priority: PriorityImmediate, Capabilities: []Capability{CapabilityB, CapabilityC}},
}

// LookupIncident returns the profile registered for an incident type.
func LookupIncident(incidentType string) (IncidentProfile, error) {
	p, ok := incidentCatalog[incidentType]
	if !ok {
		return IncidentProfile{}, fmt.Errorf("lookup incident: unknown type %q", incidentType)
	}
	return p, nil
}
