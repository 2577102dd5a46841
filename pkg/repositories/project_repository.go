// Package repositories contains data access for the engine's backing stores.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/database"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// ProjectRepository is the project store. Consistency is at-least-eventual:
// a Save immediately followed by List may not yet reflect the write.
type ProjectRepository interface {
	// Load retrieves a project by name. Returns apperrors.ErrNotFound when absent.
	Load(ctx context.Context, name string) (*models.Project, error)
	// Save upserts a project under project.ProjectName.
	Save(ctx context.Context, project *models.Project) error
	// Delete removes a project by name. Deleting an absent project is not an error.
	Delete(ctx context.Context, name string) error
	// List returns every project, most recently created first.
	List(ctx context.Context) ([]*models.Project, error)
	// FindByPartialName returns projects whose name contains pattern.
	FindByPartialName(ctx context.Context, pattern string) ([]*models.Project, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `project_name, project_id, latitude, longitude, created_at, updated_at,
	terrain_results, layout_results, simulation_results, report_results, metadata`

func (r *projectRepository) Load(ctx context.Context, name string) (*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM engine_projects
		WHERE project_name = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func (r *projectRepository) Save(ctx context.Context, project *models.Project) error {
	if project.ProjectID == uuid.Nil {
		project.ProjectID = uuid.New()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	metadata, err := json.Marshal(project.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var lat, lon *float64
	if project.Coordinates != nil {
		lat = &project.Coordinates.Latitude
		lon = &project.Coordinates.Longitude
	}

	query := `
		INSERT INTO engine_projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (project_name) DO UPDATE
		SET project_id = EXCLUDED.project_id,
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at,
		    terrain_results = EXCLUDED.terrain_results,
		    layout_results = EXCLUDED.layout_results,
		    simulation_results = EXCLUDED.simulation_results,
		    report_results = EXCLUDED.report_results,
		    metadata = EXCLUDED.metadata`

	_, err = r.db.Exec(ctx, query,
		project.ProjectName,
		project.ProjectID,
		lat,
		lon,
		project.CreatedAt,
		project.UpdatedAt,
		nullableJSON(project.TerrainResults),
		nullableJSON(project.LayoutResults),
		nullableJSON(project.SimulationResults),
		nullableJSON(project.ReportResults),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM engine_projects WHERE project_name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM engine_projects
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *projectRepository) FindByPartialName(ctx context.Context, pattern string) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM engine_projects
		WHERE project_name ILIKE '%' || $1 || '%'
		ORDER BY project_name`

	rows, err := r.db.Query(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to find projects by partial name: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func collectProjects(rows pgx.Rows) ([]*models.Project, error) {
	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}
	return projects, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var (
		project  models.Project
		lat, lon *float64
		metadata []byte
	)
	err := row.Scan(
		&project.ProjectName,
		&project.ProjectID,
		&lat,
		&lon,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.TerrainResults,
		&project.LayoutResults,
		&project.SimulationResults,
		&project.ReportResults,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lon != nil {
		project.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lon}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &project.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &project, nil
}

// nullableJSON maps an absent payload to SQL NULL so presence checks can use
// the column directly.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
