package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

type lifecycleFixture struct {
	manager  ProjectLifecycleManager
	repo     *memoryProjectRepo
	sessions *stubSessionManager
	resolver *stubResolver
	names    *stubNameGenerator
}

func newLifecycleFixture(projects ...*models.Project) *lifecycleFixture {
	f := &lifecycleFixture{
		repo:     newMemoryProjectRepo(projects...),
		sessions: &stubSessionManager{},
		resolver: &stubResolver{},
		names:    &stubNameGenerator{},
	}
	f.manager = NewProjectLifecycleManager(f.repo, f.sessions, f.resolver, f.names, 1.0, zap.NewNop())
	return f
}

func siteProject(name string, lat, lon float64, completed ...models.ResultCategory) *models.Project {
	p := &models.Project{
		ProjectName: name,
		Coordinates: &models.Coordinates{Latitude: lat, Longitude: lon},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	for _, c := range completed {
		p.SetResult(c, json.RawMessage(`{"ok":true}`))
	}
	return p
}

func TestDetectDuplicates(t *testing.T) {
	near := siteProject("amarillo-wind-farm", 35.0, -101.0, models.CategoryTerrain)
	far := siteProject("lubbock-wind-farm", 33.6, -101.8)
	f := newLifecycleFixture(near, far)

	detection := f.manager.DetectDuplicates(context.Background(), models.Coordinates{Latitude: 35.001, Longitude: -101.001}, 0)
	require.True(t, detection.Success)
	assert.True(t, detection.HasDuplicates)
	assert.Equal(t, 1.0, detection.RadiusKm, "zero radius falls back to the configured default")
	require.Len(t, detection.Matches, 1)
	assert.Equal(t, "amarillo-wind-farm", detection.Matches[0].Project.ProjectName)
	assert.InDelta(t, 0.14, detection.Matches[0].DistanceKm, 0.05)
}

func TestDetectDuplicatesNoneNearby(t *testing.T) {
	f := newLifecycleFixture(siteProject("lubbock-wind-farm", 33.6, -101.8))

	detection := f.manager.DetectDuplicates(context.Background(), models.Coordinates{Latitude: 35.0, Longitude: -101.0}, 2.0)
	require.True(t, detection.Success)
	assert.False(t, detection.HasDuplicates)
	assert.Empty(t, detection.Matches)
}

func TestCheckForDuplicatesPrompt(t *testing.T) {
	f := newLifecycleFixture(
		siteProject("amarillo-wind-farm", 35.0, -101.0, models.CategoryTerrain, models.CategoryLayout),
		siteProject("amarillo-north-wind-farm", 35.004, -101.0),
	)

	check := f.manager.CheckForDuplicates(context.Background(), models.Coordinates{Latitude: 35.0005, Longitude: -101.0}, 1.0)
	require.True(t, check.Success)
	require.True(t, check.HasDuplicates)
	assert.Contains(t, check.Prompt, "1. amarillo-wind-farm")
	assert.Contains(t, check.Prompt, "2. amarillo-north-wind-farm")
	assert.Contains(t, check.Prompt, "50% complete")
	assert.Contains(t, check.Prompt, "Reply 1")
}

func TestHandleDuplicateChoice(t *testing.T) {
	nearest := siteProject("amarillo-wind-farm", 35.0, -101.0, models.CategoryTerrain)
	duplicates := []models.DuplicateMatch{{Project: nearest, DistanceKm: 0.13}}

	t.Run("continue with nearest", func(t *testing.T) {
		f := newLifecycleFixture()
		outcome := f.manager.HandleDuplicateChoice(context.Background(), "1", duplicates, "session-1")
		require.True(t, outcome.Success)
		assert.Equal(t, ChoiceActionContinue, outcome.Action)
		require.NotNil(t, outcome.Selected)
		assert.Equal(t, "amarillo-wind-farm", outcome.Selected.ProjectName)
		assert.Equal(t, []string{"amarillo-wind-farm"}, f.sessions.activeSet)
	})

	t.Run("create new", func(t *testing.T) {
		f := newLifecycleFixture()
		outcome := f.manager.HandleDuplicateChoice(context.Background(), "2", duplicates, "session-1")
		require.True(t, outcome.Success)
		assert.Equal(t, ChoiceActionCreateNew, outcome.Action)
		assert.Empty(t, f.sessions.activeSet)
	})

	t.Run("view details", func(t *testing.T) {
		f := newLifecycleFixture()
		outcome := f.manager.HandleDuplicateChoice(context.Background(), "3", duplicates, "session-1")
		require.True(t, outcome.Success)
		assert.Equal(t, ChoiceActionViewDetails, outcome.Action)
		require.Len(t, outcome.Details, 1)
		assert.Contains(t, outcome.Details[0], "terrain complete")
		assert.NotEmpty(t, outcome.Prompt)
	})

	t.Run("garbage input defaults to create new", func(t *testing.T) {
		f := newLifecycleFixture()
		outcome := f.manager.HandleDuplicateChoice(context.Background(), "banana", duplicates, "session-1")
		require.True(t, outcome.Success)
		assert.Equal(t, ChoiceActionCreateNew, outcome.Action)
		assert.Contains(t, outcome.Message, "banana")
	})

	t.Run("continue with empty list falls back to create new", func(t *testing.T) {
		f := newLifecycleFixture()
		outcome := f.manager.HandleDuplicateChoice(context.Background(), "1", nil, "session-1")
		require.True(t, outcome.Success)
		assert.Equal(t, ChoiceActionCreateNew, outcome.Action)
	})
}

func TestSaveAnalysisResultCreatesProject(t *testing.T) {
	f := newLifecycleFixture()
	coords := &models.Coordinates{Latitude: 35.0, Longitude: -101.0}

	outcome := f.manager.SaveAnalysisResult(context.Background(), "amarillo-wind-farm",
		models.CategoryTerrain, json.RawMessage(`{"slope":2.1}`), coords, "session-1")
	require.True(t, outcome.Success)
	assert.True(t, outcome.Created)

	stored, err := f.repo.Load(context.Background(), "amarillo-wind-farm")
	require.NoError(t, err)
	assert.True(t, stored.HasResult(models.CategoryTerrain))
	require.NotNil(t, stored.Coordinates)
	assert.Equal(t, 35.0, stored.Coordinates.Latitude)
	assert.Equal(t, []string{"amarillo-wind-farm"}, f.sessions.activeSet)
	assert.Equal(t, 1, f.resolver.cacheClears)
}

func TestSaveAnalysisResultUpdatesExisting(t *testing.T) {
	f := newLifecycleFixture(siteProject("amarillo-wind-farm", 35.0, -101.0, models.CategoryTerrain))

	outcome := f.manager.SaveAnalysisResult(context.Background(), "amarillo-wind-farm",
		models.CategoryLayout, json.RawMessage(`{"turbines":12}`), nil, "")
	require.True(t, outcome.Success)
	assert.False(t, outcome.Created)

	stored, err := f.repo.Load(context.Background(), "amarillo-wind-farm")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.CompletionPercent())
}

func TestSaveAnalysisResultRejectsInvalidCoordinates(t *testing.T) {
	f := newLifecycleFixture()

	outcome := f.manager.SaveAnalysisResult(context.Background(), "bad-wind-farm",
		models.CategoryTerrain, json.RawMessage(`{}`), &models.Coordinates{Latitude: 95, Longitude: 0}, "")
	require.False(t, outcome.Success)
	assert.Equal(t, apperrors.CodeInvalidCoordinates, outcome.Code)
	assert.False(t, f.repo.has("bad-wind-farm"))
}

func TestSaveAnalysisResultRejectsEmptyPayload(t *testing.T) {
	f := newLifecycleFixture()

	outcome := f.manager.SaveAnalysisResult(context.Background(), "empty-wind-farm",
		models.CategoryTerrain, nil, nil, "")
	require.False(t, outcome.Success)
	assert.False(t, f.repo.has("empty-wind-farm"))
}

func TestSaveAnalysisResultRejectsUnusableName(t *testing.T) {
	f := newLifecycleFixture()

	outcome := f.manager.SaveAnalysisResult(context.Background(), "!!!",
		models.CategoryTerrain, json.RawMessage(`{"slope":2.1}`), nil, "")
	require.False(t, outcome.Success)
	assert.Equal(t, apperrors.CodeInvalidProjectName, outcome.Code)
	assert.Empty(t, f.repo.projects)
}

func TestSaveAnalysisResultNormalizesName(t *testing.T) {
	f := newLifecycleFixture()

	outcome := f.manager.SaveAnalysisResult(context.Background(), "Amarillo Ridge",
		models.CategoryTerrain, json.RawMessage(`{"slope":2.1}`), nil, "")
	require.True(t, outcome.Success)
	assert.Equal(t, "amarillo-ridge-wind-farm", outcome.ProjectName)
	assert.True(t, f.repo.has("amarillo-ridge-wind-farm"))
	assert.False(t, f.repo.has("Amarillo Ridge"))
}

func TestSetActiveProject(t *testing.T) {
	f := newLifecycleFixture(siteProject("amarillo-wind-farm", 35.0, -101.0))

	result := f.manager.SetActiveProject(context.Background(), "session-1", "amarillo-wind-farm")
	require.True(t, result.Success)
	assert.Equal(t, []string{"amarillo-wind-farm"}, f.sessions.activeSet)

	result = f.manager.SetActiveProject(context.Background(), "session-1", "missing-wind-farm")
	require.False(t, result.Success)
	assert.Equal(t, apperrors.CodeProjectNotFound, result.Code)
}

func TestGetProject(t *testing.T) {
	f := newLifecycleFixture(siteProject("amarillo-wind-farm", 35.0, -101.0))

	project, err := f.manager.GetProject(context.Background(), "amarillo-wind-farm")
	require.NoError(t, err)
	assert.Equal(t, "amarillo-wind-farm", project.ProjectName)

	_, err = f.manager.GetProject(context.Background(), "missing-wind-farm")
	assert.Equal(t, apperrors.CodeProjectNotFound, apperrors.CodeOf(err))
}

func TestGenerateProjectName(t *testing.T) {
	f := newLifecycleFixture()
	f.names.queryName = "amarillo-wind-farm"

	name, err := f.manager.GenerateProjectName(context.Background(), "terrain analysis in Amarillo", nil)
	require.NoError(t, err)
	assert.Equal(t, "amarillo-wind-farm-2", name)
}
