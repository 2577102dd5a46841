package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/geo"
)

// GenerateDashboard summarizes every project with completion, archive state,
// duplicate-cluster membership, and the session's active project. Entries are
// ordered by most recent update.
func (m *lifecycleManager) GenerateDashboard(ctx context.Context, sessionID string) *Dashboard {
	projects, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list projects for dashboard", zap.Error(err))
		return &Dashboard{Result: failureResult("building dashboard", err)}
	}

	activeProject := ""
	if sessionID != "" {
		if sessionCtx, err := m.sessions.GetContext(ctx, sessionID); err == nil {
			activeProject = sessionCtx.ActiveProject
		} else {
			// Dashboard still renders, just without the active marker.
			m.logger.Warn("Failed to load session context for dashboard",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	groups, err := geo.GroupDuplicates(projects, m.defaultRadius)
	if err != nil {
		m.logger.Warn("Duplicate scan skipped for dashboard", zap.Error(err))
		groups = nil
	}
	inCluster := make(map[string]bool)
	for _, g := range groups {
		for _, p := range g.Projects {
			inCluster[p.ProjectName] = true
		}
	}

	entries := make([]DashboardEntry, 0, len(projects))
	for _, p := range projects {
		entries = append(entries, DashboardEntry{
			ProjectName:       p.ProjectName,
			Coordinates:       p.Coordinates,
			CompletionPercent: p.CompletionPercent(),
			Completed:         p.CompletedCategories(),
			Archived:          p.Metadata.Archived,
			IsActive:          p.ProjectName == activeProject && activeProject != "",
			IsDuplicate:       inCluster[p.ProjectName],
			UpdatedAt:         p.UpdatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return &Dashboard{
		Result:          okResult("dashboard covers %s", countNoun(len(entries), "project")),
		Entries:         entries,
		TotalProjects:   len(entries),
		ActiveProject:   activeProject,
		DuplicateGroups: groups,
	}
}
