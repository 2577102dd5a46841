package tools

import (
	"context"
	"encoding/json"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/services"
)

// mockLifecycle records tool-layer calls and returns canned outcomes.
type mockLifecycle struct {
	lastSessionID string
	lastSkip      bool
	lastRadius    float64
	lastFilters   services.SearchFilters
	lastCategory  models.ResultCategory
	lastChoice    string
	lastMatches   []models.DuplicateMatch

	deleteOutcome  *services.DeleteOutcome
	bulkOutcome    *services.BulkDeleteOutcome
	renameOutcome  *services.RenameOutcome
	mergeOutcome   *services.MergeOutcome
	archiveOutcome *services.ArchiveOutcome
	listOutcome    *services.ProjectList
	groupsOutcome  *services.DuplicateGroups
	checkOutcome   *services.DuplicateCheck
	choiceOutcome  *services.DuplicateChoiceOutcome
	exportOutcome  *services.ExportOutcome
	importOutcome  *services.ImportOutcome
	saveOutcome    *services.SaveOutcome
	dashboard      *services.Dashboard
	project        *models.Project
	resolution     *models.Resolution
	generatedName  string
	setActive      *services.Result
}

func (m *mockLifecycle) DetectDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *services.DuplicateDetection {
	m.lastRadius = radiusKm
	if m.checkOutcome == nil {
		return &services.DuplicateDetection{}
	}
	return &m.checkOutcome.DuplicateDetection
}

func (m *mockLifecycle) CheckForDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *services.DuplicateCheck {
	m.lastRadius = radiusKm
	return m.checkOutcome
}

func (m *mockLifecycle) HandleDuplicateChoice(ctx context.Context, choice string, duplicates []models.DuplicateMatch, sessionID string) *services.DuplicateChoiceOutcome {
	m.lastChoice = choice
	m.lastMatches = duplicates
	m.lastSessionID = sessionID
	return m.choiceOutcome
}

func (m *mockLifecycle) DeleteProject(ctx context.Context, name string, skipConfirmation bool, sessionID string) *services.DeleteOutcome {
	m.lastSkip = skipConfirmation
	m.lastSessionID = sessionID
	return m.deleteOutcome
}

func (m *mockLifecycle) DeleteBulk(ctx context.Context, pattern string, skipConfirmation bool) *services.BulkDeleteOutcome {
	m.lastSkip = skipConfirmation
	return m.bulkOutcome
}

func (m *mockLifecycle) RenameProject(ctx context.Context, oldName, newName, sessionID string) *services.RenameOutcome {
	m.lastSessionID = sessionID
	return m.renameOutcome
}

func (m *mockLifecycle) MergeProjects(ctx context.Context, source, target, keepName, sessionID string) *services.MergeOutcome {
	m.lastSessionID = sessionID
	return m.mergeOutcome
}

func (m *mockLifecycle) ArchiveProject(ctx context.Context, name, sessionID string) *services.ArchiveOutcome {
	m.lastSessionID = sessionID
	return m.archiveOutcome
}

func (m *mockLifecycle) UnarchiveProject(ctx context.Context, name string) *services.ArchiveOutcome {
	return m.archiveOutcome
}

func (m *mockLifecycle) ListActiveProjects(ctx context.Context) *services.ProjectList {
	return m.listOutcome
}

func (m *mockLifecycle) ListArchivedProjects(ctx context.Context) *services.ProjectList {
	return m.listOutcome
}

func (m *mockLifecycle) SearchProjects(ctx context.Context, filters services.SearchFilters) *services.ProjectList {
	m.lastFilters = filters
	return m.listOutcome
}

func (m *mockLifecycle) FindDuplicates(ctx context.Context, radiusKm float64) *services.DuplicateGroups {
	m.lastRadius = radiusKm
	return m.groupsOutcome
}

func (m *mockLifecycle) ExportProject(ctx context.Context, name string) *services.ExportOutcome {
	return m.exportOutcome
}

func (m *mockLifecycle) ImportProject(ctx context.Context, envelope *models.ExportEnvelope) *services.ImportOutcome {
	return m.importOutcome
}

func (m *mockLifecycle) GenerateDashboard(ctx context.Context, sessionID string) *services.Dashboard {
	m.lastSessionID = sessionID
	return m.dashboard
}

func (m *mockLifecycle) SaveAnalysisResult(ctx context.Context, name string, category models.ResultCategory, payload json.RawMessage, coords *models.Coordinates, sessionID string) *services.SaveOutcome {
	m.lastCategory = category
	m.lastSessionID = sessionID
	return m.saveOutcome
}

func (m *mockLifecycle) GetProject(ctx context.Context, name string) (*models.Project, error) {
	if m.project == nil {
		return nil, apperrors.ProjectNotFound(name)
	}
	return m.project, nil
}

func (m *mockLifecycle) SetActiveProject(ctx context.Context, sessionID, name string) *services.Result {
	m.lastSessionID = sessionID
	return m.setActive
}

func (m *mockLifecycle) GenerateProjectName(ctx context.Context, query string, coords *models.Coordinates) (string, error) {
	return m.generatedName, nil
}

func (m *mockLifecycle) ResolveProject(ctx context.Context, query, sessionID string) (*models.Resolution, error) {
	m.lastSessionID = sessionID
	return m.resolution, nil
}

var _ services.ProjectLifecycleManager = (*mockLifecycle)(nil)
