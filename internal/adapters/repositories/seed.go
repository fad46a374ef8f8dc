package repositories

import (
	"database/sql"
	"dispatch-route-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ResourceSeed struct {
	ID         int     `json:"id" validate:"gt=0"`
	Capability int     `json:"capability" validate:"min=1,max=5"`
	Lat        float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon        float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// EmergencySeed describes one scripted emergency.
//
// IncidentType, when set, supplies the default priority and capabilities
// from the incident catalog. Requirements, when set, take precedence over
// Capabilities.
type EmergencySeed struct {
	ID           int     `json:"id" validate:"gt=0"`
	Lat          float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon          float64 `json:"lon" validate:"gte=-180,lte=180"`
	IncidentType string  `json:"incident_type"`
	Priority     string  `json:"priority"`
	Capabilities []int   `json:"capabilities" validate:"omitempty,dive,min=1,max=5"`
	Requirements []int   `json:"requirements" validate:"omitempty,len=5,dive,gte=0"`
	OffsetMS     int64   `json:"offset_ms" validate:"gte=0"`
	Description  string  `json:"description"`
}

// ParseResourceSeeds decodes and validates a resources seed document.
func ParseResourceSeeds(data []byte) ([]domain.Resource, error) {
	var seeds []ResourceSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse resources: parse json: %w", err)
	}

	seen := make(map[int]struct{}, len(seeds))
	out := make([]domain.Resource, 0, len(seeds))
	for i, s := range seeds {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("parse resources: item at index %d: %w", i+1, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("parse resources: duplicate id %d at index %d", s.ID, i+1)
		}
		seen[s.ID] = struct{}{}

		out = append(out, domain.Resource{
			ID:         s.ID,
			Capability: domain.Capability(s.Capability),
			Position:   domain.Coordinate{Lat: s.Lat, Lon: s.Lon},
		})
	}

	return out, nil
}

// ParseEmergencySeeds decodes and validates an emergencies seed document.
func ParseEmergencySeeds(data []byte) ([]domain.Emergency, error) {
	var seeds []EmergencySeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse emergencies: parse json: %w", err)
	}

	seen := make(map[int]struct{}, len(seeds))
	out := make([]domain.Emergency, 0, len(seeds))
	for i, s := range seeds {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("parse emergencies: item at index %d: %w", i+1, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("parse emergencies: duplicate id %d at index %d", s.ID, i+1)
		}
		seen[s.ID] = struct{}{}

		e, err := s.toEmergency()
		if err != nil {
			return nil, fmt.Errorf("parse emergencies: item at index %d: %w", i+1, err)
		}
		out = append(out, e)
	}

	return out, nil
}

func (s EmergencySeed) toEmergency() (domain.Emergency, error) {
	var profile domain.IncidentProfile
	if it := strings.TrimSpace(s.IncidentType); it != "" {
		p, err := domain.LookupIncident(it)
		if err != nil {
			return domain.Emergency{}, err
		}
		profile = p
	}

	priority := profile.Priority
	if s.Priority != "" {
		p, err := domain.ParsePriority(s.Priority)
		if err != nil {
			return domain.Emergency{}, err
		}
		priority = p
	}
	if priority == "" {
		return domain.Emergency{}, errors.New("priority or incident_type is required")
	}

	requirements := s.Requirements
	if len(requirements) == 0 {
		caps := profile.Capabilities
		if len(s.Capabilities) > 0 {
			caps = make([]domain.Capability, 0, len(s.Capabilities))
			for _, c := range s.Capabilities {
				caps = append(caps, domain.Capability(c))
			}
		}
		r, err := domain.RequirementsFromCapabilities(caps)
		if err != nil {
			return domain.Emergency{}, err
		}
		requirements = r
	}

	description := strings.TrimSpace(s.Description)
	if description == "" {
		description = strings.TrimSpace(s.IncidentType)
	}

	return domain.Emergency{
		ID:           s.ID,
		Location:     domain.Coordinate{Lat: s.Lat, Lon: s.Lon},
		Priority:     priority,
		Requirements: append([]int(nil), requirements...),
		Offset:       time.Duration(s.OffsetMS) * time.Millisecond,
		Description:  description,
	}, nil
}

// Populate the resources table from a JSON file.
func SeedResourcesFromJSON(db *sql.DB, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed resources: read %q: %w", jsonPath, err)
	}

	resources, err := ParseResourceSeeds(data)
	if err != nil {
		return fmt.Errorf("seed resources: %w", err)
	}

	return insertAll(db, "seed resources", `
	INSERT OR REPLACE INTO resources (
		resource_id,
		capability,
		lat,
		lon
	)
	VALUES (?, ?, ?, ?);
	`, len(resources), func(stmt *sql.Stmt, i int) error {
		r := resources[i]
		if _, err := stmt.Exec(r.ID, int(r.Capability), r.Position.Lat, r.Position.Lon); err != nil {
			return fmt.Errorf("insert resource_id=%d: %w", r.ID, err)
		}
		return nil
	})
}

// Populate the emergencies table from a JSON file.
func SeedEmergenciesFromJSON(db *sql.DB, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed emergencies: read %q: %w", jsonPath, err)
	}

	emergencies, err := ParseEmergencySeeds(data)
	if err != nil {
		return fmt.Errorf("seed emergencies: %w", err)
	}

	return insertAll(db, "seed emergencies", `
	INSERT OR REPLACE INTO emergencies (
		emergency_id,
		lat,
		lon,
		priority,
		requirements,
		offset_ms,
		description
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, len(emergencies), func(stmt *sql.Stmt, i int) error {
		e := emergencies[i]
		reqs, err := json.Marshal(e.Requirements)
		if err != nil {
			return fmt.Errorf("encode requirements emergency_id=%d: %w", e.ID, err)
		}
		if _, err := stmt.Exec(
			e.ID, e.Location.Lat, e.Location.Lon, string(e.Priority),
			string(reqs), e.Offset.Milliseconds(), e.Description,
		); err != nil {
			return fmt.Errorf("insert emergency_id=%d: %w", e.ID, err)
		}
		return nil
	})
}

func insertAll(db *sql.DB, op string, query string, n int, exec func(*sql.Stmt, int) error) error {
	if db == nil {
		return fmt.Errorf("%s: DB is nil", op)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("%s: prepare insert: %w", op, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return nil
}
