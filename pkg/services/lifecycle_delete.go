package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
)

func (m *lifecycleManager) DeleteProject(ctx context.Context, name string, skipConfirmation bool, sessionID string) *DeleteOutcome {
	project, err := m.projects.Load(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &DeleteOutcome{Result: errorResult(apperrors.ProjectNotFound(name)), ProjectName: name}
	}
	if err != nil {
		m.logger.Error("Failed to load project for deletion", zap.String("project", name), zap.Error(err))
		return &DeleteOutcome{Result: failureResult("deleting project", err), ProjectName: name}
	}

	if project.Metadata.InProgress {
		return &DeleteOutcome{Result: errorResult(apperrors.ProjectInProgress(name)), ProjectName: name}
	}

	if !skipConfirmation {
		return &DeleteOutcome{
			Result: errorResult(apperrors.ConfirmationRequired(
				fmt.Sprintf("deleting %q and all of its analysis results (%d%% complete)", name, project.CompletionPercent()))),
			ProjectName:          name,
			RequiresConfirmation: true,
		}
	}

	if err := m.projects.Delete(ctx, name); err != nil {
		m.logger.Error("Failed to delete project", zap.String("project", name), zap.Error(err))
		return &DeleteOutcome{Result: failureResult("deleting project", err), ProjectName: name}
	}

	m.forgetProject(ctx, sessionID, name)
	m.resolver.ClearCache()

	m.logger.Info("Deleted project", zap.String("project", name))
	return &DeleteOutcome{
		Result:      okResult("deleted project %q", name),
		ProjectName: name,
	}
}

func (m *lifecycleManager) DeleteBulk(ctx context.Context, pattern string, skipConfirmation bool) *BulkDeleteOutcome {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return &BulkDeleteOutcome{
			Result:  failureResult("bulk delete", errors.New("empty name pattern")),
			Pattern: pattern,
		}
	}

	matches, err := m.projects.FindByPartialName(ctx, pattern)
	if err != nil {
		m.logger.Error("Failed to match projects for bulk delete", zap.String("pattern", pattern), zap.Error(err))
		return &BulkDeleteOutcome{Result: failureResult("bulk delete", err), Pattern: pattern}
	}
	if len(matches) == 0 {
		return &BulkDeleteOutcome{
			Result:  okResult("no projects match %q", pattern),
			Pattern: pattern,
		}
	}

	matched := make([]string, 0, len(matches))
	for _, p := range matches {
		matched = append(matched, p.ProjectName)
	}
	sort.Strings(matched)

	if !skipConfirmation {
		return &BulkDeleteOutcome{
			Result: errorResult(apperrors.ConfirmationRequired(
				fmt.Sprintf("deleting %s matching %q: %s", countNoun(len(matched), "project"), pattern, strings.Join(matched, ", ")))),
			Pattern:              pattern,
			Matched:              matched,
			RequiresConfirmation: true,
		}
	}

	// Each member is deleted independently; one failure never blocks the rest.
	deleted := make([]string, 0, len(matches))
	failures := make(map[string]string)
	for _, p := range matches {
		if p.Metadata.InProgress {
			failures[p.ProjectName] = apperrors.ProjectInProgress(p.ProjectName).Message
			continue
		}
		if err := m.projects.Delete(ctx, p.ProjectName); err != nil {
			m.logger.Error("Failed to delete project in bulk operation",
				zap.String("project", p.ProjectName), zap.Error(err))
			failures[p.ProjectName] = err.Error()
			continue
		}
		deleted = append(deleted, p.ProjectName)
	}
	sort.Strings(deleted)

	if len(deleted) > 0 {
		m.resolver.ClearCache()
	}

	outcome := &BulkDeleteOutcome{
		Pattern:  pattern,
		Matched:  matched,
		Deleted:  deleted,
		Failures: failures,
	}
	switch {
	case len(failures) == 0:
		outcome.Result = okResult("deleted %s matching %q", countNoun(len(deleted), "project"), pattern)
	case len(deleted) == 0:
		outcome.Result = Result{Success: false, Message: fmt.Sprintf("could not delete any of the %s matching %q", countNoun(len(matched), "project"), pattern)}
	default:
		outcome.Result = okResult("deleted %s matching %q; %d could not be deleted",
			countNoun(len(deleted), "project"), pattern, len(failures))
	}
	return outcome
}

// forgetProject best-effort removes a deleted project from the session.
func (m *lifecycleManager) forgetProject(ctx context.Context, sessionID, name string) {
	if sessionID == "" {
		return
	}
	if err := m.sessions.RemoveProjectReferences(ctx, sessionID, name); err != nil {
		m.logger.Warn("Failed to remove project references from session",
			zap.String("session_id", sessionID),
			zap.String("project", name),
			zap.Error(err))
	}
}
