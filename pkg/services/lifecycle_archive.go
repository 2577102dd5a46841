package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

func (m *lifecycleManager) ArchiveProject(ctx context.Context, name, sessionID string) *ArchiveOutcome {
	project, err := m.projects.Load(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &ArchiveOutcome{Result: errorResult(apperrors.ProjectNotFound(name)), ProjectName: name}
	}
	if err != nil {
		m.logger.Error("Failed to load project for archiving", zap.String("project", name), zap.Error(err))
		return &ArchiveOutcome{Result: failureResult("archiving project", err), ProjectName: name}
	}

	if project.Metadata.Archived {
		return &ArchiveOutcome{
			Result:      okResult("project %q is already archived", name),
			ProjectName: name,
			Archived:    true,
		}
	}

	now := time.Now().UTC()
	project.Metadata.Archived = true
	project.Metadata.ArchivedAt = &now
	if err := m.projects.Save(ctx, project); err != nil {
		m.logger.Error("Failed to archive project", zap.String("project", name), zap.Error(err))
		return &ArchiveOutcome{Result: failureResult("archiving project", err), ProjectName: name}
	}

	// Archived projects drop out of the conversational working set.
	m.forgetProject(ctx, sessionID, name)

	m.logger.Info("Archived project", zap.String("project", name))
	return &ArchiveOutcome{
		Result:      okResult("archived project %q", name),
		ProjectName: name,
		Archived:    true,
	}
}

func (m *lifecycleManager) UnarchiveProject(ctx context.Context, name string) *ArchiveOutcome {
	project, err := m.projects.Load(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &ArchiveOutcome{Result: errorResult(apperrors.ProjectNotFound(name)), ProjectName: name}
	}
	if err != nil {
		m.logger.Error("Failed to load project for unarchiving", zap.String("project", name), zap.Error(err))
		return &ArchiveOutcome{Result: failureResult("unarchiving project", err), ProjectName: name}
	}

	if !project.Metadata.Archived {
		return &ArchiveOutcome{
			Result:      okResult("project %q is not archived", name),
			ProjectName: name,
		}
	}

	project.Metadata.Archived = false
	project.Metadata.ArchivedAt = nil
	if err := m.projects.Save(ctx, project); err != nil {
		m.logger.Error("Failed to unarchive project", zap.String("project", name), zap.Error(err))
		return &ArchiveOutcome{Result: failureResult("unarchiving project", err), ProjectName: name}
	}

	m.logger.Info("Unarchived project", zap.String("project", name))
	return &ArchiveOutcome{
		Result:      okResult("restored project %q from the archive", name),
		ProjectName: name,
	}
}

func (m *lifecycleManager) ListActiveProjects(ctx context.Context) *ProjectList {
	return m.listByArchived(ctx, false)
}

func (m *lifecycleManager) ListArchivedProjects(ctx context.Context) *ProjectList {
	return m.listByArchived(ctx, true)
}

func (m *lifecycleManager) listByArchived(ctx context.Context, archived bool) *ProjectList {
	projects, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list projects", zap.Error(err))
		return &ProjectList{Result: failureResult("listing projects", err)}
	}

	filtered := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if p.Metadata.Archived == archived {
			filtered = append(filtered, p)
		}
	}

	noun := "active project"
	if archived {
		noun = "archived project"
	}
	return &ProjectList{
		Result:   okResult("found %s", countNoun(len(filtered), noun)),
		Projects: filtered,
		Count:    len(filtered),
	}
}
