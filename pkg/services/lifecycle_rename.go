package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// RenameProject moves a project to a new name as copy-then-delete. The store
// keys rows by name, so there is no atomic rename; a crash between the two
// writes leaves both names present, and re-running the rename reconciles.
func (m *lifecycleManager) RenameProject(ctx context.Context, oldName, newName, sessionID string) *RenameOutcome {
	raw := newName
	newName = NormalizeName(newName)
	outcome := &RenameOutcome{OldName: oldName, NewName: newName}

	if newName == "" {
		outcome.Result = errorResult(apperrors.InvalidProjectName(raw))
		return outcome
	}
	if newName == oldName {
		outcome.Result = okResult("project is already named %q", oldName)
		return outcome
	}

	project, err := m.projects.Load(ctx, oldName)
	if errors.Is(err, apperrors.ErrNotFound) {
		outcome.Result = errorResult(apperrors.ProjectNotFound(oldName))
		return outcome
	}
	if err != nil {
		m.logger.Error("Failed to load project for rename", zap.String("project", oldName), zap.Error(err))
		outcome.Result = failureResult("renaming project", err)
		return outcome
	}

	if _, err := m.projects.Load(ctx, newName); err == nil {
		outcome.Result = errorResult(apperrors.NameAlreadyExists(newName))
		return outcome
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		m.logger.Error("Failed to check target name for rename", zap.String("project", newName), zap.Error(err))
		outcome.Result = failureResult("renaming project", err)
		return outcome
	}

	renamed := *project
	renamed.ProjectName = newName
	if err := m.projects.Save(ctx, &renamed); err != nil {
		m.logger.Error("Failed to write renamed project",
			zap.String("old_name", oldName), zap.String("new_name", newName), zap.Error(err))
		outcome.Result = failureResult("renaming project", err)
		return outcome
	}

	if err := m.projects.Delete(ctx, oldName); err != nil {
		// The copy exists; only the old row lingers. Report it so the caller
		// can retry the delete instead of the whole rename.
		m.logger.Error("Renamed copy written but old name not removed",
			zap.String("old_name", oldName), zap.String("new_name", newName), zap.Error(err))
		outcome.Result = Result{
			Success: false,
			Message: "renamed to " + newName + " but the old name could not be removed; delete " + oldName + " to finish",
		}
		return outcome
	}

	m.rewriteSessionReferences(ctx, sessionID, oldName, newName)
	m.resolver.ClearCache()

	m.logger.Info("Renamed project", zap.String("old_name", oldName), zap.String("new_name", newName))
	outcome.Result = okResult("renamed %q to %q", oldName, newName)
	return outcome
}

// MergeProjects folds two projects into one. For each result category the
// kept project's payload wins when present; gaps are filled from the other.
// The losing name is deleted afterwards, with the same non-atomicity as rename.
func (m *lifecycleManager) MergeProjects(ctx context.Context, source, target, keepName, sessionID string) *MergeOutcome {
	if keepName == "" {
		keepName = target
	}
	if keepName != source && keepName != target {
		return &MergeOutcome{Result: errorResult(apperrors.MergeConflict(keepName, source, target))}
	}
	if source == target {
		return &MergeOutcome{
			Result:     okResult("%q is already a single project", source),
			MergedName: source,
		}
	}

	sourceProject, err := m.projects.Load(ctx, source)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &MergeOutcome{Result: errorResult(apperrors.ProjectNotFound(source))}
	}
	if err != nil {
		m.logger.Error("Failed to load merge source", zap.String("project", source), zap.Error(err))
		return &MergeOutcome{Result: failureResult("merging projects", err)}
	}

	targetProject, err := m.projects.Load(ctx, target)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &MergeOutcome{Result: errorResult(apperrors.ProjectNotFound(target))}
	}
	if err != nil {
		m.logger.Error("Failed to load merge target", zap.String("project", target), zap.Error(err))
		return &MergeOutcome{Result: failureResult("merging projects", err)}
	}

	kept, other := targetProject, sourceProject
	if keepName == source {
		kept, other = sourceProject, targetProject
	}

	merged := *kept
	for _, c := range models.ResultCategories {
		if !merged.HasResult(c) && other.HasResult(c) {
			merged.SetResult(c, other.Result(c))
		}
	}
	if merged.Coordinates == nil {
		merged.Coordinates = other.Coordinates
	}
	merged.Metadata = mergeMetadata(sourceProject.Metadata, targetProject.Metadata)
	if other.CreatedAt.Before(merged.CreatedAt) {
		merged.CreatedAt = other.CreatedAt
	}

	if err := m.projects.Save(ctx, &merged); err != nil {
		m.logger.Error("Failed to write merged project", zap.String("project", keepName), zap.Error(err))
		return &MergeOutcome{Result: failureResult("merging projects", err)}
	}

	outcome := &MergeOutcome{
		MergedName:  merged.ProjectName,
		DeletedName: other.ProjectName,
		Categories:  merged.CompletedCategories(),
	}

	if err := m.projects.Delete(ctx, other.ProjectName); err != nil {
		m.logger.Error("Merged project written but losing name not removed",
			zap.String("merged", merged.ProjectName),
			zap.String("deleted", other.ProjectName),
			zap.Error(err))
		outcome.Result = Result{
			Success: false,
			Message: "merged into " + merged.ProjectName + " but " + other.ProjectName + " could not be removed; delete it to finish",
		}
		return outcome
	}

	m.rewriteSessionReferences(ctx, sessionID, other.ProjectName, merged.ProjectName)
	m.resolver.ClearCache()

	m.logger.Info("Merged projects",
		zap.String("merged", merged.ProjectName),
		zap.String("deleted", other.ProjectName))
	outcome.Result = okResult("merged %q into %q (%s complete)",
		other.ProjectName, merged.ProjectName, countNoun(len(outcome.Categories), "category"))
	return outcome
}

// mergeMetadata overlays target annotations on top of source. Target values
// win whenever set; source fills the rest.
func mergeMetadata(source, target models.ProjectMetadata) models.ProjectMetadata {
	merged := source
	merged.Archived = source.Archived || target.Archived
	if target.ArchivedAt != nil {
		merged.ArchivedAt = target.ArchivedAt
	}
	merged.InProgress = source.InProgress || target.InProgress
	if target.TurbineCount != nil {
		merged.TurbineCount = target.TurbineCount
	}
	if target.TotalCapacityMW != nil {
		merged.TotalCapacityMW = target.TotalCapacityMW
	}
	if target.AnnualEnergyGWH != nil {
		merged.AnnualEnergyGWH = target.AnnualEnergyGWH
	}
	return merged
}

// rewriteSessionReferences best-effort renames a project in the session.
func (m *lifecycleManager) rewriteSessionReferences(ctx context.Context, sessionID, oldName, newName string) {
	if sessionID == "" {
		return
	}
	if err := m.sessions.RenameReferences(ctx, sessionID, oldName, newName); err != nil {
		m.logger.Warn("Failed to rewrite session project references",
			zap.String("session_id", sessionID),
			zap.String("old_name", oldName),
			zap.String("new_name", newName),
			zap.Error(err))
	}
}
