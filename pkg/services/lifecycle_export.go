package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

func (m *lifecycleManager) ExportProject(ctx context.Context, name string) *ExportOutcome {
	project, err := m.projects.Load(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &ExportOutcome{Result: errorResult(apperrors.ProjectNotFound(name))}
	}
	if err != nil {
		m.logger.Error("Failed to load project for export", zap.String("project", name), zap.Error(err))
		return &ExportOutcome{Result: Result{
			Success: false,
			Code:    apperrors.CodeExportError,
			Message: fmt.Sprintf("failed to export %q: %v", name, err),
		}}
	}

	keys := make([]string, 0, len(models.ResultCategories))
	for _, c := range project.CompletedCategories() {
		keys = append(keys, fmt.Sprintf("projects/%s/%s-results.json", project.ProjectName, c))
	}

	envelope := &models.ExportEnvelope{
		Version:      models.ExportVersion,
		ExportedAt:   time.Now().UTC(),
		Project:      project,
		ArtifactKeys: keys,
	}

	m.logger.Info("Exported project", zap.String("project", name))
	return &ExportOutcome{
		Result:   okResult("exported project %q (version %s)", name, envelope.Version),
		Envelope: envelope,
	}
}

// ImportProject writes an exported envelope into the store. Name collisions
// are resolved by suffixing rather than overwriting, so an import never
// clobbers existing work.
func (m *lifecycleManager) ImportProject(ctx context.Context, envelope *models.ExportEnvelope) *ImportOutcome {
	if envelope == nil || envelope.Project == nil || envelope.Project.ProjectName == "" {
		return &ImportOutcome{Result: Result{
			Success: false,
			Code:    apperrors.CodeImportError,
			Message: "import envelope is missing a project",
		}}
	}
	if envelope.Version != models.ExportVersion {
		return &ImportOutcome{Result: errorResult(apperrors.UnsupportedVersion(envelope.Version))}
	}

	project := *envelope.Project
	project.ProjectName = NormalizeName(project.ProjectName)
	if project.ProjectName == "" {
		return &ImportOutcome{Result: errorResult(apperrors.InvalidProjectName(envelope.Project.ProjectName))}
	}
	project.ProjectID = uuid.Nil // new identity on import
	renamed := false

	if _, err := m.projects.Load(ctx, project.ProjectName); err == nil {
		candidate := project.ProjectName + "-imported"
		unique, err := m.names.EnsureUnique(ctx, candidate)
		if err != nil {
			m.logger.Error("Failed to find a free name for import",
				zap.String("project", project.ProjectName), zap.Error(err))
			return &ImportOutcome{Result: Result{
				Success: false,
				Code:    apperrors.CodeImportError,
				Message: fmt.Sprintf("failed to import %q: %v", project.ProjectName, err),
			}}
		}
		project.ProjectName = unique
		renamed = true
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		m.logger.Error("Failed to check import name", zap.String("project", project.ProjectName), zap.Error(err))
		return &ImportOutcome{Result: Result{
			Success: false,
			Code:    apperrors.CodeImportError,
			Message: fmt.Sprintf("failed to import %q: %v", project.ProjectName, err),
		}}
	}

	if err := m.projects.Save(ctx, &project); err != nil {
		m.logger.Error("Failed to write imported project", zap.String("project", project.ProjectName), zap.Error(err))
		return &ImportOutcome{Result: Result{
			Success: false,
			Code:    apperrors.CodeImportError,
			Message: fmt.Sprintf("failed to import %q: %v", project.ProjectName, err),
		}}
	}

	m.resolver.ClearCache()

	m.logger.Info("Imported project",
		zap.String("project", project.ProjectName),
		zap.Bool("renamed", renamed))
	message := fmt.Sprintf("imported project %q", project.ProjectName)
	if renamed {
		message += " (renamed to avoid a collision)"
	}
	return &ImportOutcome{
		Result:       okResult("%s", message),
		ImportedName: project.ProjectName,
		Renamed:      renamed,
	}
}
