package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/geo"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// SearchFilters narrows the project listing. Every set filter applies; an
// unset filter passes everything through. Nil pointer fields mean unset.
type SearchFilters struct {
	Location       string              `json:"location,omitempty"`
	DateFrom       *time.Time          `json:"date_from,omitempty"`
	DateTo         *time.Time          `json:"date_to,omitempty"`
	IncompleteOnly bool                `json:"incomplete_only,omitempty"`
	Near           *models.Coordinates `json:"near,omitempty"`
	RadiusKm       float64             `json:"radius_km,omitempty"`
	Archived       *bool               `json:"archived,omitempty"`
}

// SearchProjects applies the filters as a fixed narrowing chain: location
// substring, date window, incompleteness, proximity, then archive state.
func (m *lifecycleManager) SearchProjects(ctx context.Context, filters SearchFilters) *ProjectList {
	if filters.Near != nil && filters.RadiusKm < 0 {
		return &ProjectList{Result: errorResult(apperrors.InvalidSearchRadius(filters.RadiusKm))}
	}

	projects, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list projects for search", zap.Error(err))
		return &ProjectList{Result: failureResult("searching projects", err)}
	}

	if loc := strings.ToLower(strings.TrimSpace(filters.Location)); loc != "" {
		projects = keep(projects, func(p *models.Project) bool {
			return strings.Contains(strings.ToLower(p.ProjectName), loc)
		})
	}
	if filters.DateFrom != nil {
		projects = keep(projects, func(p *models.Project) bool {
			return !p.CreatedAt.Before(*filters.DateFrom)
		})
	}
	if filters.DateTo != nil {
		projects = keep(projects, func(p *models.Project) bool {
			return !p.CreatedAt.After(*filters.DateTo)
		})
	}
	if filters.IncompleteOnly {
		projects = keep(projects, func(p *models.Project) bool {
			return !p.IsComplete()
		})
	}
	if filters.Near != nil {
		matches, err := geo.WithinRadius(projects, *filters.Near, m.radiusOrDefault(filters.RadiusKm))
		if err != nil {
			if appErr, ok := asAppError(err); ok {
				return &ProjectList{Result: errorResult(appErr)}
			}
			return &ProjectList{Result: failureResult("searching projects", err)}
		}
		projects = make([]*models.Project, 0, len(matches))
		for _, match := range matches {
			projects = append(projects, match.Project)
		}
	}
	if filters.Archived != nil {
		projects = keep(projects, func(p *models.Project) bool {
			return p.Metadata.Archived == *filters.Archived
		})
	}

	return &ProjectList{
		Result:   okResult("found %s", countNoun(len(projects), "matching project")),
		Projects: projects,
		Count:    len(projects),
	}
}

func keep(projects []*models.Project, pred func(*models.Project) bool) []*models.Project {
	kept := projects[:0:0]
	for _, p := range projects {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// FindDuplicates scans the whole store for clusters of projects within
// radiusKm of each other.
func (m *lifecycleManager) FindDuplicates(ctx context.Context, radiusKm float64) *DuplicateGroups {
	radiusKm = m.radiusOrDefault(radiusKm)

	projects, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list projects for duplicate scan", zap.Error(err))
		return &DuplicateGroups{Result: failureResult("scanning for duplicates", err)}
	}

	groups, err := geo.GroupDuplicates(projects, radiusKm)
	if err != nil {
		if appErr, ok := asAppError(err); ok {
			return &DuplicateGroups{Result: errorResult(appErr)}
		}
		return &DuplicateGroups{Result: failureResult("scanning for duplicates", err)}
	}

	if len(groups) == 0 {
		return &DuplicateGroups{
			Result: okResult("no duplicate clusters within %.1f km", radiusKm),
			Groups: groups,
		}
	}
	return &DuplicateGroups{
		Result: okResult("found %s within %.1f km", countNoun(len(groups), "duplicate cluster"), radiusKm),
		Groups: groups,
	}
}
