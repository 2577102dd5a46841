// Package models contains domain types for windrose-engine.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within the WGS84 domain.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// ResultCategory identifies one of the four analysis result slots on a project.
type ResultCategory string

const (
	CategoryTerrain    ResultCategory = "terrain"
	CategoryLayout     ResultCategory = "layout"
	CategorySimulation ResultCategory = "simulation"
	CategoryReport     ResultCategory = "report"
)

// ResultCategories lists the slots in canonical order.
var ResultCategories = []ResultCategory{
	CategoryTerrain,
	CategoryLayout,
	CategorySimulation,
	CategoryReport,
}

// ProjectMetadata holds mutable annotations on a project. Stored as JSONB.
type ProjectMetadata struct {
	Archived        bool       `json:"archived,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	InProgress      bool       `json:"in_progress,omitempty"`
	TurbineCount    *int       `json:"turbine_count,omitempty"`
	TotalCapacityMW *float64   `json:"total_capacity_mw,omitempty"`
	AnnualEnergyGWH *float64   `json:"annual_energy_gwh,omitempty"`
}

// Project is a named wind-farm site analysis. ProjectName is the primary key;
// uniqueness across the store is enforced by the lifecycle layer, not the store.
// The four result payloads are opaque to this engine: the lifecycle layer only
// ever checks presence or absence, never contents.
type Project struct {
	ProjectName string       `json:"project_name"`
	ProjectID   uuid.UUID    `json:"project_id"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	TerrainResults    json.RawMessage `json:"terrain_results,omitempty"`
	LayoutResults     json.RawMessage `json:"layout_results,omitempty"`
	SimulationResults json.RawMessage `json:"simulation_results,omitempty"`
	ReportResults     json.RawMessage `json:"report_results,omitempty"`

	Metadata ProjectMetadata `json:"metadata"`
}

// Result returns the payload for the given category, nil when absent.
func (p *Project) Result(category ResultCategory) json.RawMessage {
	switch category {
	case CategoryTerrain:
		return p.TerrainResults
	case CategoryLayout:
		return p.LayoutResults
	case CategorySimulation:
		return p.SimulationResults
	case CategoryReport:
		return p.ReportResults
	}
	return nil
}

// SetResult stores the payload for the given category.
func (p *Project) SetResult(category ResultCategory, payload json.RawMessage) {
	switch category {
	case CategoryTerrain:
		p.TerrainResults = payload
	case CategoryLayout:
		p.LayoutResults = payload
	case CategorySimulation:
		p.SimulationResults = payload
	case CategoryReport:
		p.ReportResults = payload
	}
}

// HasResult reports whether the category's payload is present.
func (p *Project) HasResult(category ResultCategory) bool {
	return len(p.Result(category)) > 0
}

// CompletedCategories returns the categories with a payload, in canonical order.
func (p *Project) CompletedCategories() []ResultCategory {
	var done []ResultCategory
	for _, c := range ResultCategories {
		if p.HasResult(c) {
			done = append(done, c)
		}
	}
	return done
}

// CompletionPercent is the share of the four result slots that are filled,
// as a whole percentage (0, 25, 50, 75, 100).
func (p *Project) CompletionPercent() int {
	return len(p.CompletedCategories()) * 100 / len(ResultCategories)
}

// IsComplete reports whether all four result slots are filled.
func (p *Project) IsComplete() bool {
	return len(p.CompletedCategories()) == len(ResultCategories)
}
