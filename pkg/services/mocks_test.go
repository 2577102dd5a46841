package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// memoryProjectRepo is an in-memory ProjectRepository with per-method error
// injection for fault-path tests.
type memoryProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*models.Project

	loadErr   error
	saveErr   error
	deleteErr error
	listErr   error
	findErr   error
}

func newMemoryProjectRepo(projects ...*models.Project) *memoryProjectRepo {
	repo := &memoryProjectRepo{projects: make(map[string]*models.Project)}
	for _, p := range projects {
		repo.projects[p.ProjectName] = p
	}
	return repo
}

func (r *memoryProjectRepo) Load(ctx context.Context, name string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	p, ok := r.projects[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memoryProjectRepo) Save(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := *project
	r.projects[project.ProjectName] = &clone
	return nil
}

func (r *memoryProjectRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.projects, name)
	return nil
}

func (r *memoryProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*models.Project, 0, len(names))
	for _, name := range names {
		clone := *r.projects[name]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memoryProjectRepo) FindByPartialName(ctx context.Context, pattern string) ([]*models.Project, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*models.Project
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.ProjectName), strings.ToLower(pattern)) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *memoryProjectRepo) has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.projects[name]
	return ok
}

// stubSessionManager records session mutations without a backing store.
type stubSessionManager struct {
	context *models.SessionContext

	getErr error

	activeSet []string
	removed   []string
	renamed   [][2]string
}

func (s *stubSessionManager) GetContext(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.context != nil {
		return s.context.Clone(), nil
	}
	return &models.SessionContext{SessionID: sessionID}, nil
}

func (s *stubSessionManager) SetActiveProject(ctx context.Context, sessionID, name string) error {
	s.activeSet = append(s.activeSet, name)
	return nil
}

func (s *stubSessionManager) AddToHistory(ctx context.Context, sessionID, name string) error {
	return nil
}

func (s *stubSessionManager) RemoveProjectReferences(ctx context.Context, sessionID, name string) error {
	s.removed = append(s.removed, name)
	return nil
}

func (s *stubSessionManager) RenameReferences(ctx context.Context, sessionID, oldName, newName string) error {
	s.renamed = append(s.renamed, [2]string{oldName, newName})
	return nil
}

// stubResolver returns a fixed resolution and counts cache clears.
type stubResolver struct {
	resolution  *models.Resolution
	resolveErr  error
	cacheClears int
}

func (r *stubResolver) Resolve(ctx context.Context, query string, sessionCtx *models.SessionContext) (*models.Resolution, error) {
	if r.resolveErr != nil {
		return nil, r.resolveErr
	}
	if r.resolution != nil {
		return r.resolution, nil
	}
	return &models.Resolution{}, nil
}

func (r *stubResolver) ClearCache() {
	r.cacheClears++
}

// stubNameGenerator returns canned names.
type stubNameGenerator struct {
	queryName string
	uniqueErr error
}

func (g *stubNameGenerator) GenerateFromQuery(ctx context.Context, query string, coords *models.Coordinates) string {
	if g.queryName != "" {
		return g.queryName
	}
	return NormalizeName(query)
}

func (g *stubNameGenerator) GenerateFromCoordinates(ctx context.Context, lat, lon float64) string {
	return "site-stub"
}

func (g *stubNameGenerator) EnsureUnique(ctx context.Context, base string) (string, error) {
	if g.uniqueErr != nil {
		return "", g.uniqueErr
	}
	return base + "-2", nil
}
