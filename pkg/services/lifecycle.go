package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/geo"
	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/repositories"
)

// ProjectLifecycleManager is the composition root over the project store,
// resolver, name generator, session manager, and proximity detection. Every
// operation returns a displayable result; collaborator faults are converted
// into the error taxonomy and never escape as raw errors.
//
// Composite operations (rename, merge, bulk delete) are multi-step without
// rollback: callers must treat them as at-least-once. Repeating a rename whose
// source is already gone fails cleanly with PROJECT_NOT_FOUND, so retries are
// safe.
type ProjectLifecycleManager interface {
	DetectDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *DuplicateDetection
	CheckForDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *DuplicateCheck
	HandleDuplicateChoice(ctx context.Context, choice string, duplicates []models.DuplicateMatch, sessionID string) *DuplicateChoiceOutcome

	DeleteProject(ctx context.Context, name string, skipConfirmation bool, sessionID string) *DeleteOutcome
	DeleteBulk(ctx context.Context, pattern string, skipConfirmation bool) *BulkDeleteOutcome
	RenameProject(ctx context.Context, oldName, newName, sessionID string) *RenameOutcome
	MergeProjects(ctx context.Context, source, target, keepName, sessionID string) *MergeOutcome

	ArchiveProject(ctx context.Context, name, sessionID string) *ArchiveOutcome
	UnarchiveProject(ctx context.Context, name string) *ArchiveOutcome
	ListActiveProjects(ctx context.Context) *ProjectList
	ListArchivedProjects(ctx context.Context) *ProjectList

	SearchProjects(ctx context.Context, filters SearchFilters) *ProjectList
	FindDuplicates(ctx context.Context, radiusKm float64) *DuplicateGroups

	ExportProject(ctx context.Context, name string) *ExportOutcome
	ImportProject(ctx context.Context, envelope *models.ExportEnvelope) *ImportOutcome

	GenerateDashboard(ctx context.Context, sessionID string) *Dashboard

	// SaveAnalysisResult attaches an opaque result payload, creating the
	// project on first attachment. This is the only path that brings a
	// project into existence.
	SaveAnalysisResult(ctx context.Context, name string, category models.ResultCategory, payload json.RawMessage, coords *models.Coordinates, sessionID string) *SaveOutcome

	GetProject(ctx context.Context, name string) (*models.Project, error)
	SetActiveProject(ctx context.Context, sessionID, name string) *Result
	GenerateProjectName(ctx context.Context, query string, coords *models.Coordinates) (string, error)
	ResolveProject(ctx context.Context, query, sessionID string) (*models.Resolution, error)
}

type lifecycleManager struct {
	projects      repositories.ProjectRepository
	sessions      SessionContextManager
	resolver      ProjectResolver
	names         NameGenerator
	defaultRadius float64
	logger        *zap.Logger
}

// NewProjectLifecycleManager creates the lifecycle composition root.
// defaultRadiusKm is used whenever a caller passes a zero radius.
func NewProjectLifecycleManager(
	projects repositories.ProjectRepository,
	sessions SessionContextManager,
	resolver ProjectResolver,
	names NameGenerator,
	defaultRadiusKm float64,
	logger *zap.Logger,
) ProjectLifecycleManager {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 1.0
	}
	return &lifecycleManager{
		projects:      projects,
		sessions:      sessions,
		resolver:      resolver,
		names:         names,
		defaultRadius: defaultRadiusKm,
		logger:        logger.Named("lifecycle"),
	}
}

func (m *lifecycleManager) radiusOrDefault(radiusKm float64) float64 {
	if radiusKm == 0 {
		return m.defaultRadius
	}
	return radiusKm
}

// asAppError converts err into a taxonomy result when it carries a code.
func asAppError(err error) (*apperrors.Error, bool) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (m *lifecycleManager) DetectDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *DuplicateDetection {
	radiusKm = m.radiusOrDefault(radiusKm)

	projects, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list projects for duplicate detection", zap.Error(err))
		return &DuplicateDetection{Result: failureResult("duplicate detection", err), RadiusKm: radiusKm}
	}

	matches, err := geo.WithinRadius(projects, coords, radiusKm)
	if err != nil {
		if appErr, ok := asAppError(err); ok {
			return &DuplicateDetection{Result: errorResult(appErr), RadiusKm: radiusKm}
		}
		return &DuplicateDetection{Result: failureResult("duplicate detection", err), RadiusKm: radiusKm}
	}

	detection := &DuplicateDetection{
		HasDuplicates: len(matches) > 0,
		Matches:       matches,
		RadiusKm:      radiusKm,
	}
	if detection.HasDuplicates {
		detection.Result = okResult("found %s within %.1f km", countNoun(len(matches), "existing project"), radiusKm)
	} else {
		detection.Result = okResult("no existing projects within %.1f km", radiusKm)
	}
	return detection
}

func (m *lifecycleManager) CheckForDuplicates(ctx context.Context, coords models.Coordinates, radiusKm float64) *DuplicateCheck {
	detection := m.DetectDuplicates(ctx, coords, radiusKm)
	check := &DuplicateCheck{DuplicateDetection: *detection}
	if !detection.Success || !detection.HasDuplicates {
		return check
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %s near this location:\n", countNoun(len(detection.Matches), "existing project"))
	for i, match := range detection.Matches {
		fmt.Fprintf(&b, "  %d. %s (%.2f km away, %d%% complete)\n",
			i+1, match.Project.ProjectName, match.DistanceKm, match.Project.CompletionPercent())
	}
	b.WriteString("Reply 1 to continue with the nearest existing project, 2 to create a new project, or 3 to view details.")
	check.Prompt = b.String()
	return check
}

func (m *lifecycleManager) HandleDuplicateChoice(ctx context.Context, choice string, duplicates []models.DuplicateMatch, sessionID string) *DuplicateChoiceOutcome {
	choice = strings.TrimSpace(choice)

	switch choice {
	case "1":
		if len(duplicates) == 0 {
			return &DuplicateChoiceOutcome{
				Result: okResult("no duplicates to continue with; creating a new project instead"),
				Action: ChoiceActionCreateNew,
			}
		}
		nearest := duplicates[0].Project
		m.recordActiveProject(ctx, sessionID, nearest.ProjectName)
		return &DuplicateChoiceOutcome{
			Result:   okResult("continuing with existing project %q", nearest.ProjectName),
			Action:   ChoiceActionContinue,
			Selected: nearest,
		}

	case "2":
		return &DuplicateChoiceOutcome{
			Result: okResult("creating a new project"),
			Action: ChoiceActionCreateNew,
		}

	case "3":
		details := make([]string, 0, len(duplicates))
		for _, match := range duplicates {
			p := match.Project
			completed := make([]string, 0, 4)
			for _, c := range p.CompletedCategories() {
				completed = append(completed, string(c))
			}
			summary := "no analyses yet"
			if len(completed) > 0 {
				summary = strings.Join(completed, ", ") + " complete"
			}
			details = append(details, fmt.Sprintf("%s — %.2f km away — %s", p.ProjectName, match.DistanceKm, summary))
		}
		return &DuplicateChoiceOutcome{
			Result:  okResult("showing %s", countNoun(len(details), "nearby project")),
			Action:  ChoiceActionViewDetails,
			Details: details,
			Prompt:  "Reply 1 to continue with the nearest existing project, or 2 to create a new one.",
		}

	default:
		// Unknown input never blocks the conversation; default to a new project.
		m.logger.Warn("Unrecognized duplicate choice, defaulting to create-new",
			zap.String("choice", choice))
		return &DuplicateChoiceOutcome{
			Result: okResult("did not recognize %q; creating a new project", choice),
			Action: ChoiceActionCreateNew,
		}
	}
}

func (m *lifecycleManager) SaveAnalysisResult(ctx context.Context, name string, category models.ResultCategory, payload json.RawMessage, coords *models.Coordinates, sessionID string) *SaveOutcome {
	raw := name
	name = NormalizeName(name)
	if name == "" {
		return &SaveOutcome{
			Result:      errorResult(apperrors.InvalidProjectName(raw)),
			ProjectName: raw,
		}
	}
	if len(payload) == 0 {
		return &SaveOutcome{
			Result:      failureResult("saving analysis result", fmt.Errorf("empty %s payload", category)),
			ProjectName: name,
		}
	}
	if coords != nil && !coords.Valid() {
		return &SaveOutcome{
			Result:      errorResult(apperrors.InvalidCoordinates(coords.Latitude, coords.Longitude)),
			ProjectName: name,
		}
	}

	created := false
	project, err := m.projects.Load(ctx, name)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// First result attachment brings the project into existence.
		project = &models.Project{ProjectName: name, Coordinates: coords}
		created = true
	case err != nil:
		m.logger.Error("Failed to load project for result attachment",
			zap.String("project", name), zap.Error(err))
		return &SaveOutcome{Result: failureResult("saving analysis result", err), ProjectName: name}
	}

	project.SetResult(category, payload)
	if project.Coordinates == nil && coords != nil {
		project.Coordinates = coords
	}

	if err := m.projects.Save(ctx, project); err != nil {
		m.logger.Error("Failed to save analysis result",
			zap.String("project", name), zap.Error(err))
		return &SaveOutcome{Result: failureResult("saving analysis result", err), ProjectName: name}
	}

	m.recordActiveProject(ctx, sessionID, name)
	m.resolver.ClearCache()

	m.logger.Info("Saved analysis result",
		zap.String("project", name),
		zap.String("category", string(category)),
		zap.Bool("created", created))
	return &SaveOutcome{
		Result:      okResult("saved %s results for %q", category, name),
		ProjectName: name,
		Created:     created,
	}
}

func (m *lifecycleManager) GetProject(ctx context.Context, name string) (*models.Project, error) {
	project, err := m.projects.Load(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ProjectNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func (m *lifecycleManager) SetActiveProject(ctx context.Context, sessionID, name string) *Result {
	if _, err := m.projects.Load(ctx, name); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			r := errorResult(apperrors.ProjectNotFound(name))
			return &r
		}
		r := failureResult("setting active project", err)
		return &r
	}

	if err := m.sessions.SetActiveProject(ctx, sessionID, name); err != nil {
		r := failureResult("setting active project", err)
		return &r
	}
	r := okResult("active project is now %q", name)
	return &r
}

func (m *lifecycleManager) GenerateProjectName(ctx context.Context, query string, coords *models.Coordinates) (string, error) {
	base := m.names.GenerateFromQuery(ctx, query, coords)
	name, err := m.names.EnsureUnique(ctx, base)
	if err != nil {
		return "", fmt.Errorf("failed to ensure unique name: %w", err)
	}
	return name, nil
}

func (m *lifecycleManager) ResolveProject(ctx context.Context, query, sessionID string) (*models.Resolution, error) {
	var sessionCtx *models.SessionContext
	if sessionID != "" {
		var err error
		sessionCtx, err = m.sessions.GetContext(ctx, sessionID)
		if err != nil {
			// Resolution degrades to store-only matching.
			m.logger.Warn("Failed to load session context for resolution",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return m.resolver.Resolve(ctx, query, sessionCtx)
}

// recordActiveProject best-effort updates the session pointer and history.
// Session failures never fail a lifecycle operation.
func (m *lifecycleManager) recordActiveProject(ctx context.Context, sessionID, name string) {
	if sessionID == "" {
		return
	}
	if err := m.sessions.SetActiveProject(ctx, sessionID, name); err != nil {
		m.logger.Warn("Failed to update session active project",
			zap.String("session_id", sessionID),
			zap.String("project", name),
			zap.Error(err))
	}
}
